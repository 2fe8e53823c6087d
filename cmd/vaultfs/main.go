// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package main demonstrates the root container over an in-memory block
// store: a public mkdir, a private write, a store and reload of the
// container, and a private read-back after remounting the partition from
// its encoded AccessKey (the exchange tree is not touched), in the style
// of the teacher's cmd/checker, cmd/consensus single-purpose command
// trees.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/luxfi/vaultfs/accumulator"
	"github.com/luxfi/vaultfs/blockstore"
	"github.com/luxfi/vaultfs/private"
	"github.com/luxfi/vaultfs/rootfs"
)

var logger = slog.Default().With("module", "vaultfs")

func main() {
	privatePath := flag.String("private-write", "docs/hello.txt", "path under the demo private partition to write")
	content := flag.String("content", "Hello, World!", "content to write at -private-write")
	partition := flag.String("partition", "home", "name of the private partition to mount")
	flag.Parse()

	ctx := context.Background()
	store := blockstore.NewMemStore()
	rng := rootfs.NewRNG()
	now := time.Now()

	setup, err := rootfsSetup(rng)
	if err != nil {
		logger.Error("building accumulator setup", "err", err)
		os.Exit(1)
	}

	root := rootfs.New(setup, now)

	accessKey, err := root.CreatePrivateRoot(ctx, store, *partition, now, rng)
	if err != nil {
		logger.Error("creating private root", "err", err)
		os.Exit(1)
	}

	if err := root.Mkdir(ctx, store, []string{"public", "shared"}, now, rng); err != nil {
		logger.Error("public mkdir", "err", err)
		os.Exit(1)
	}
	if err := root.Write(ctx, store, append([]string{"private", *partition}, splitPath(*privatePath)...), []byte(*content), now, rng); err != nil {
		logger.Error("private write", "err", err)
		os.Exit(1)
	}

	rootCID, err := root.Store(ctx, store)
	if err != nil {
		logger.Error("storing root container", "err", err)
		os.Exit(1)
	}

	fmt.Printf("root container CID: %s\n", rootCID)
	fmt.Printf("blocks written:     %d\n", store.Len())

	reopened, err := rootfs.Load(ctx, rootCID, store)
	if err != nil {
		logger.Error("reloading root container", "err", err)
		os.Exit(1)
	}
	key, err := private.DecodeAccessKey(mustEncode(accessKey))
	if err != nil {
		logger.Error("decoding access key", "err", err)
		os.Exit(1)
	}
	if err := reopened.LoadPrivateRoot(ctx, store, *partition, key); err != nil {
		logger.Error("loading private root", "err", err)
		os.Exit(1)
	}
	got, err := reopened.Read(ctx, store, append([]string{"private", *partition}, splitPath(*privatePath)...))
	if err != nil {
		logger.Error("private read-back", "err", err)
		os.Exit(1)
	}
	fmt.Printf("private read-back:  %q\n", string(got))
}

// rootfsSetup builds the accumulator setup the demo container runs over.
// FromRSA2048 is used rather than Trusted so the demo has no toxic-waste
// generation step to reason about, matching the accumulator package's
// own "Good for tests" guidance for that constructor.
func rootfsSetup(rng io.Reader) (accumulator.Setup, error) {
	return accumulator.FromRSA2048(rng)
}

func splitPath(p string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(p); i++ {
		if i == len(p) || p[i] == '/' {
			if i > start {
				out = append(out, p[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func mustEncode(k private.AccessKey) []byte {
	b, err := k.Encode()
	if err != nil {
		panic(err)
	}
	return b
}
