package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"net/http"
	_ "net/http/pprof"

	"github.com/dropbox/godropbox/math2/rand2"

	"github.com/robot-dreams/db2700"
	"github.com/robot-dreams/db2700/catalog"
	"github.com/robot-dreams/db2700/heap_file"
)

func ratingsSchema() (*db2700.Schema, error) {
	t, err := db2700.NewSchema("ratings")
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"userId", "movieId", "rating", "timestamp"} {
		_, err = t.AddField(db2700.NewIntField(name))
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

func main() {
	go func() {
		log.Println(http.ListenAndServe("localhost:6060", nil))
	}()
	var flagNumRecords int
	var flagBufferPoolSize int
	flag.IntVar(&flagNumRecords, "num_records", 1000000, "number of ratings to load")
	flag.IntVar(&flagBufferPoolSize, "buffer_pool_size", 0, "pages in the buffer pool")
	flag.Parse()

	dir, err := os.MkdirTemp("", "")
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()
	db, err := catalog.Open(catalog.Options{
		Dir:            dir,
		BufferPoolSize: flagBufferPoolSize,
	})
	if err != nil {
		log.Fatal(err)
	}
	t, err := ratingsSchema()
	if err != nil {
		log.Fatal(err)
	}
	records := make([]*db2700.Record, flagNumRecords)
	for i := range records {
		r := t.NewRecord()
		err = r.Fill(
			rand2.Intn(100000),
			rand2.Intn(30000),
			rand2.Intn(10),
			i)
		if err != nil {
			log.Fatal(err)
		}
		records[i] = r
	}
	hf, err := db.CreateTable(t)
	if err != nil {
		log.Fatal(err)
	}

	start := time.Now()
	_, err = hf.AppendAll(db2700.NewInMemoryScan(t, records))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf(
		"Done loading after %v\n",
		time.Since(start))
	fmt.Println("Resetting timer...")
	start = time.Now()
	heapFileScan, err := heap_file.NewScan(hf)
	if err != nil {
		log.Fatal(err)
	}
	numRecords := 0
	for {
		_, err = heapFileScan.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			log.Fatal(err)
		}
		numRecords++
	}
	fmt.Printf(
		"Done scanning all %v records in heap file after %v\n",
		numRecords,
		time.Since(start))
	err = heapFileScan.Close()
	if err != nil {
		log.Fatal(err)
	}
	err = db.Close()
	if err != nil {
		log.Fatal(err)
	}
}
