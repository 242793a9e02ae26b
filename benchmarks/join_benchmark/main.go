package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/dropbox/godropbox/math2/rand2"

	"github.com/robot-dreams/db2700"
	"github.com/robot-dreams/db2700/catalog"
	"github.com/robot-dreams/db2700/executor"
	"github.com/robot-dreams/db2700/heap_file"
)

func newTable(
	db *catalog.Database,
	name string,
	fields []*db2700.Field,
	n int,
	fill func(r *db2700.Record, i int) error,
) (*heap_file.HeapFile, error) {
	t, err := db2700.NewSchema(name)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		_, err = t.AddField(f)
		if err != nil {
			return nil, err
		}
	}
	hf, err := db.CreateTable(t)
	if err != nil {
		return nil, err
	}
	r := t.NewRecord()
	for i := 0; i < n; i++ {
		err = fill(r, i)
		if err != nil {
			return nil, err
		}
		err = hf.AppendRecord(r)
		if err != nil {
			return nil, err
		}
	}
	hf.Release()
	return hf, nil
}

func main() {
	go func() {
		log.Println(http.ListenAndServe("localhost:6060", nil))
	}()
	var flagNumUsers int
	var flagNumRatings int
	flag.IntVar(&flagNumUsers, "num_users", 1000, "rows of the users table")
	flag.IntVar(&flagNumRatings, "num_ratings", 20000, "rows of the ratings table")
	flag.Parse()

	dir, err := os.MkdirTemp("", "")
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()
	db, err := catalog.Open(catalog.Options{Dir: dir})
	if err != nil {
		log.Fatal(err)
	}
	users, err := newTable(
		db,
		"users",
		[]*db2700.Field{
			db2700.NewIntField("userId"),
			db2700.NewStrField("name", 16),
		},
		flagNumUsers,
		func(r *db2700.Record, i int) error {
			return r.Fill(i, fmt.Sprintf("user%d", i))
		})
	if err != nil {
		log.Fatal(err)
	}
	// Half of the ratings belong to users that do not exist.
	ratings, err := newTable(
		db,
		"ratings",
		[]*db2700.Field{
			db2700.NewIntField("movieId"),
			db2700.NewIntField("userId"),
			db2700.NewIntField("rating"),
		},
		flagNumRatings,
		func(r *db2700.Record, i int) error {
			return r.Fill(rand2.Intn(30000), rand2.Intn(2*flagNumUsers), rand2.Intn(10))
		})
	if err != nil {
		log.Fatal(err)
	}

	start := time.Now()
	joined, err := executor.NaturalJoin(db, ratings, users)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf(
		"Finished joining into %v joined records after %v\n",
		joined.NumRecords(),
		time.Since(start))
	err = db.Close()
	if err != nil {
		log.Fatal(err)
	}
}
