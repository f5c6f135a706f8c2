package parser

import (
	"sync"
	"testing"
)

func TestParserPool_GetPut(t *testing.T) {
	pool := NewParserPool(PythonLanguage())

	sp := pool.Get()
	if sp == nil {
		t.Fatal("expected non-nil parser from pool")
	}
	if pool.Stats() != 1 {
		t.Errorf("expected one lease, got %d", pool.Stats())
	}

	pool.Put(sp)
	if pool.Stats() != 0 {
		t.Errorf("expected no leases after Put, got %d", pool.Stats())
	}
}

func TestParserPool_PutNil(t *testing.T) {
	pool := NewParserPool(PythonLanguage())
	// Put(nil) must be a no-op.
	pool.Put(nil)
}

func TestParserPool_ParsesValidPython(t *testing.T) {
	pool := NewParserPool(PythonLanguage())

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse([]byte("import os\nprint(os.getcwd())\n"), nil)
	if tree == nil {
		t.Fatal("expected non-nil tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.Kind() != "module" {
		t.Errorf("expected root kind module, got %s", root.Kind())
	}
	if root.HasError() {
		t.Error("expected tree without errors")
	}
}

func TestParserPool_Concurrent(t *testing.T) {
	pool := NewParserPool(PythonLanguage())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sp := pool.Get()
			defer pool.Put(sp)
			tree := sp.Parse([]byte("x = 1\n"), nil)
			if tree == nil {
				t.Error("expected tree")
				return
			}
			tree.Close()
		}()
	}
	wg.Wait()

	if pool.Stats() != 0 {
		t.Errorf("expected all parsers returned, got %d leases", pool.Stats())
	}
}
