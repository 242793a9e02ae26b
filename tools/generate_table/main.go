// generate_table fills a table with random records sorted on an int field
// "val" and, with -check, compares indexed and scanning equality selections
// on values around its page boundaries.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dropbox/godropbox/math2/rand2"

	"github.com/robot-dreams/db2700/catalog"
	"github.com/robot-dreams/db2700/heap_file"
	"github.com/robot-dreams/db2700/logging"
)

func main() {
	var flagDir string
	var flagTable string
	var flagNumRecords int
	var flagNumRandom int
	var flagCheck bool
	var flagKeep bool
	var flagLogLevel string
	flag.StringVar(&flagDir, "dir", ".", "database directory")
	flag.StringVar(&flagTable, "table", "IntField", "name of the table to create")
	flag.IntVar(&flagNumRecords, "n", 1024, "number of records to generate")
	flag.IntVar(&flagNumRandom, "nrand", 10, "number of random queries of each kind")
	flag.BoolVar(&flagCheck, "check", false, "compare indexed and scanning selections")
	flag.BoolVar(&flagKeep, "keep", true, "keep the generated table")
	flag.StringVar(&flagLogLevel, "log_level", "INFO", "DEBUG, INFO, WARN or ERROR")
	flag.Parse()
	if flagNumRecords <= 0 {
		log.Fatalf("n must be greater than 0, got %d", flagNumRecords)
	}
	logging.SetOutput(os.Stderr, logging.LogLevel(flagLogLevel))

	db, err := catalog.Open(catalog.Options{Dir: flagDir})
	if err != nil {
		log.Fatal(err)
	}
	g, err := newGenerator(flagTable, int32(rand2.Intn(flagNumRecords+1)))
	if err != nil {
		log.Fatal(err)
	}
	hf, values, err := g.generate(db, flagNumRecords)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Created %v with %d records\n", hf.Name(), hf.NumRecords())
	fmt.Print(heap_file.SchemaInfo(g.schema))

	failures := 0
	if flagCheck {
		qs := queries(values, g.schema.Len(), flagNumRandom)
		for _, q := range qs {
			ok, err := check(db, hf, q)
			if err != nil {
				log.Fatal(err)
			}
			status := "passed"
			if !ok {
				status = "FAILED"
				failures++
			}
			fmt.Printf("%-28s %10d  %s\n", q.desc, q.value, status)
		}
		fmt.Printf("Passed %d/%d checks\n", len(qs)-failures, len(qs))
	}
	if !flagKeep {
		err = db.RemoveTable(hf.Name())
		if err != nil {
			log.Fatal(err)
		}
	}
	err = db.Close()
	if err != nil {
		log.Fatal(err)
	}
	if failures > 0 {
		os.Exit(1)
	}
}
