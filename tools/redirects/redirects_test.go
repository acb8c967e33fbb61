package main

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const panicSrc = `package kfmt

// Panic halts the CPU.
//
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {}

//go:redirect-from runtime.throw
func panicString(msg string) {}

// helper is not redirected.
func helper() {}
`

func TestFindRedirects(t *testing.T) {
	root := t.TempDir()
	pkgDir := filepath.Join(root, "kernel", "kfmt")
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		filepath.Join(root, "go.mod"):          "module lmkernel\n\ngo 1.24\n",
		filepath.Join(pkgDir, "panic.go"):      panicSrc,
		filepath.Join(pkgDir, "panic_test.go"): "package kfmt\n\n//go:redirect-from runtime.ignored\nfunc testOnly() {}\n",
	}
	for name, contents := range files {
		if err := os.WriteFile(name, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(root); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	redirects, err := kernelRedirects()
	if err != nil {
		t.Fatal(err)
	}

	got := make(map[string]string)
	for _, r := range redirects {
		got[r.src] = r.dst
	}

	exp := map[string]string{
		"runtime.gopanic": "lmkernel/kernel/kfmt.Panic",
		"runtime.throw":   "lmkernel/kernel/kfmt.panicString",
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Fatalf("unexpected redirects (-want +got):\n%s", diff)
	}
}

func TestFindRedirectsMalformed(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.go")
	if err := os.WriteFile(src, []byte("package bad\n\n//go:redirect-from a b\nfunc Bad() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := findRedirects("lmkernel", []string{src}); err == nil {
		t.Fatal("expected an error for a malformed redirect annotation")
	}
}

func TestModulePathMissing(t *testing.T) {
	if _, err := modulePath(t.TempDir()); err == nil {
		t.Fatal("expected an error when go.mod does not exist")
	}
}

func TestResolveAndWriteRedirects(t *testing.T) {
	redirects := []*redirect{
		{src: "runtime.gopanic", dst: "lmkernel/kernel/kfmt.Panic"},
	}
	symbols := []elf.Symbol{
		{Name: "runtime.gopanic", Value: 0x101000},
		{Name: "lmkernel/kernel/kfmt.Panic", Value: 0x102000},
	}

	if err := resolveRedirectSymbols(redirects, symbols); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := writeRedirectTable(&buf, redirects); err != nil {
		t.Fatal(err)
	}

	exp := make([]byte, 16)
	binary.LittleEndian.PutUint64(exp[0:], 0x101000)
	binary.LittleEndian.PutUint64(exp[8:], 0x102000)
	if diff := cmp.Diff(exp, buf.Bytes()); diff != "" {
		t.Fatalf("unexpected redirect table (-want +got):\n%s", diff)
	}

	missing := []*redirect{{src: "runtime.throw", dst: "lmkernel/kernel/kfmt.panicString"}}
	if err := resolveRedirectSymbols(missing, symbols); err == nil {
		t.Fatal("expected an error for an unresolved symbol")
	}
}
