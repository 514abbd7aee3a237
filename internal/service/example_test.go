package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jpl-au/docstore/internal/config"
	"github.com/jpl-au/docstore/internal/document"
	"github.com/jpl-au/docstore/internal/service"
	"github.com/jpl-au/docstore/internal/store"
)

// tempStore creates a temporary relational project for examples.
func tempStore() (service.Service, func()) {
	dir, err := os.MkdirTemp("", "docstore-example-*")
	if err != nil {
		panic(err)
	}
	os.Unsetenv(config.EnvBackend)
	ctx := context.Background()
	root, err := document.Init(ctx, dir, store.KindRelational, false)
	if err != nil {
		panic(err)
	}
	svc, err := document.OpenRoot(ctx, root, document.Options{Actor: "alice"})
	if err != nil {
		panic(err)
	}
	cleanup := func() {
		svc.Close()
		os.RemoveAll(dir)
	}
	return svc, cleanup
}

func Example_basicUsage() {
	svc, cleanup := tempStore()
	defer cleanup()
	ctx := context.Background()

	res, err := svc.Set(ctx, "docs/hello.md", store.Document{Content: "Hello, World!"}, store.SetOptions{})
	if err != nil {
		panic(err)
	}
	fmt.Println(res.ID, res.Created, res.Version)

	doc, err := svc.Get(ctx, "docs/hello")
	if err != nil {
		panic(err)
	}
	fmt.Println(doc.Content)
	// Output:
	// docs/hello true 1
	// Hello, World!
}

func Example_optimisticConcurrency() {
	svc, cleanup := tempStore()
	defer cleanup()
	ctx := context.Background()

	_, _ = svc.Set(ctx, "counter", store.Document{Data: map[string]any{"n": 1}}, store.SetOptions{})

	// A writer holding version 1 succeeds once; a second writer with the
	// same stale token conflicts.
	_, err := svc.Set(ctx, "counter", store.Document{Data: map[string]any{"n": 2}}, store.SetOptions{Version: "1"})
	fmt.Println(err)
	_, err = svc.Set(ctx, "counter", store.Document{Data: map[string]any{"n": 3}}, store.SetOptions{Version: "1"})
	fmt.Println(errors.Is(err, store.ErrConflict))
	// Output:
	// <nil>
	// true
}

func Example_pagination() {
	svc, cleanup := tempStore()
	defer cleanup()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		_, _ = svc.Set(ctx, id, store.Document{}, store.SetOptions{})
	}

	page, err := svc.List(ctx, store.Filter{SortBy: "id", Limit: 2, Offset: 2})
	if err != nil {
		panic(err)
	}
	for _, d := range page.Documents {
		fmt.Println(d.ID)
	}
	fmt.Println(page.Total, page.HasMore)
	// Output:
	// c
	// d
	// 5 true
}
