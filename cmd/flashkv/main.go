// Command flashkv is a small demonstration harness: it backs an Engine with
// a flash device and runs a handful of put/get/delete operations against
// it, printing what it observes. With -image it persists to a file instead
// of the default in-memory Fake, so a second run can show recovery.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Priyanshu23/flashkv/flash"
	"github.com/Priyanshu23/flashkv/kvs"
)

func main() {
	image := flag.String("image", "", "path to a persistent flash image file (default: in-memory)")
	flag.Parse()

	if err := run(*image); err != nil {
		fmt.Fprintln(os.Stderr, "flashkv:", err)
		os.Exit(1)
	}
}

func run(imagePath string) error {
	var dev flash.Device
	if imagePath != "" {
		fd, err := flash.OpenFileDevice(imagePath, 4, 4096, 1)
		if err != nil {
			return err
		}
		defer fd.Close()
		dev = fd
	} else {
		dev = flash.NewFake(4, 4096, 1)
	}

	part, err := flash.NewPartition(dev, 0, dev.SectorCount(), 16)
	if err != nil {
		return err
	}

	e, err := kvs.New(part, kvs.Config{MaxEntries: 64})
	if err != nil {
		return err
	}
	if err := e.Init(); err != nil {
		return err
	}

	if err := e.Put([]byte("greeting"), []byte("hello, flash")); err != nil {
		return err
	}
	if err := e.Put([]byte("answer"), []byte("42")); err != nil {
		return err
	}

	buf := make([]byte, 64)
	n, err := e.Get([]byte("greeting"), buf)
	if err != nil {
		return err
	}
	fmt.Printf("greeting = %q\n", buf[:n])

	for item, err := range e.Iterate() {
		if err != nil {
			return err
		}
		val := make([]byte, item.ValueSize())
		if _, err := item.Value(val); err != nil {
			return err
		}
		fmt.Printf("%s = %q\n", item.Key(), val)
	}

	if err := e.Delete([]byte("answer")); err != nil {
		return err
	}
	fmt.Printf("store now holds %d of %d entries\n", e.Size(), e.MaxSize())

	return nil
}
