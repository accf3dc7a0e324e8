package main

import (
	"flag"
	"fmt"
	"os"

	"subpay-indexer.backend/internal/usecases"
)

// subhash computes a subscription hash from the command line, exposing
// the same packed-encoding keccak256 the HTTP /subscriptions/hash
// endpoint and the on-chain router both use, grounded in the teacher's
// small single-purpose cmd/ tools.
func main() {
	productHash := flag.String("product-hash", "", "bytes32 product hash, hex-encoded")
	user := flag.String("user", "", "subscriber address")
	start := flag.Int64("start", 0, "subscription start, unix seconds")
	flag.Parse()

	if *productHash == "" || *user == "" {
		fmt.Fprintln(os.Stderr, "usage: subhash -product-hash 0x... -user 0x... -start <unix>")
		os.Exit(1)
	}

	fmt.Println(usecases.SubscriptionHash(*productHash, *user, *start))
}
