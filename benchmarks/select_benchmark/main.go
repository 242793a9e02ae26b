package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"net/http"
	_ "net/http/pprof"

	"github.com/robot-dreams/db2700/catalog"
	"github.com/robot-dreams/db2700/executor"
)

func main() {
	go func() {
		log.Println(http.ListenAndServe("localhost:6060", nil))
	}()
	var flagDir string
	var flagTable string
	var flagField string
	var flagValue int
	var flagBufferPoolSize int
	flag.StringVar(&flagDir, "dir", ".", "database directory")
	flag.StringVar(&flagTable, "table", "IntField", "table sorted ascending on field")
	flag.StringVar(&flagField, "field", "val", "int field to select on")
	flag.IntVar(&flagValue, "value", 0, "value to look up")
	flag.IntVar(&flagBufferPoolSize, "buffer_pool_size", 0, "pages in the buffer pool")
	flag.Parse()

	db, err := catalog.Open(catalog.Options{
		Dir:            flagDir,
		BufferPoolSize: flagBufferPoolSize,
	})
	if err != nil {
		log.Fatal(err)
	}
	hf := db.Table(flagTable)
	if hf == nil {
		log.Fatalf("no table named %v in %v", flagTable, flagDir)
	}
	numBlocks, err := hf.NumBlocks()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%v: %d records in %d blocks\n", hf.Name(), hf.NumRecords(), numBlocks)

	for _, useIndex := range []bool{false, true} {
		strategy := "scan"
		if useIndex {
			strategy = "index"
		}
		fmt.Printf("Starting timer for %v strategy...\n", strategy)
		start := time.Now()
		result, err := executor.Select(db, hf, flagField, "=", int32(flagValue), useIndex)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf(
			"Done with %v strategy after %v: %d matching records\n",
			strategy,
			time.Since(start),
			result.NumRecords())
		err = db.RemoveTable(result.Name())
		if err != nil {
			log.Fatal(err)
		}
	}
	err = db.Close()
	if err != nil {
		log.Fatal(err)
	}
}
