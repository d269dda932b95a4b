package parser

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codescope/internal/errors"
)

func parseSource(t *testing.T, relPath, src string) *FileAnalysis {
	t.Helper()

	p := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	analysis, err := p.ParseFile(context.Background(), relPath, []byte(src))
	require.NoError(t, err)
	require.NotNil(t, analysis)
	return analysis
}

func symbolByName(t *testing.T, a *FileAnalysis, name string) *Symbol {
	t.Helper()

	for _, s := range a.Symbols {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("symbol %q not found in %v", name, symbolNames(a))
	return nil
}

func symbolNames(a *FileAnalysis) []string {
	names := make([]string, 0, len(a.Symbols))
	for _, s := range a.Symbols {
		names = append(names, s.Name)
	}
	return names
}

func TestParseFile_UnsupportedExtension(t *testing.T) {
	p := New(slog.New(slog.NewTextHandler(io.Discard, nil)))

	analysis, err := p.ParseFile(context.Background(), "README.md", []byte("# readme"))

	require.Error(t, err)
	assert.Nil(t, analysis)
	assert.Equal(t, errors.ErrCodeUnsupportedLanguage, errors.GetCode(err))
}

func TestParser_LanguageFor(t *testing.T) {
	p := New(nil)

	tests := []struct {
		path      string
		language  string
		supported bool
	}{
		{"src/Main.java", "java", true},
		{"src/app.ts", "typescript", true},
		{"src/App.tsx", "typescript", true},
		{"lib/util.js", "javascript", true},
		{"lib/View.jsx", "javascript", true},
		{"script.py", "", false},
		{"notes.md", "", false},
		{"Makefile", "", false},
	}

	for _, tt := range tests {
		lang, ok := p.LanguageFor(tt.path)
		assert.Equal(t, tt.supported, ok, tt.path)
		assert.Equal(t, tt.language, lang, tt.path)
		assert.Equal(t, tt.supported, p.Supported(tt.path), tt.path)
	}
}

func TestParser_SupportedExtensions(t *testing.T) {
	exts := New(nil).SupportedExtensions()
	assert.Equal(t, []string{".java", ".js", ".jsx", ".ts", ".tsx"}, exts)
}

func TestRegistry_ExtensionNormalization(t *testing.T) {
	r := DefaultRegistry()

	for _, ext := range []string{".java", "java", ".JAVA", "Java"} {
		lang, ok := r.GetByExtension(ext)
		require.True(t, ok, ext)
		assert.Equal(t, "java", lang.Name, ext)
	}

	_, ok := r.GetByExtension(".rb")
	assert.False(t, ok)
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\nb\n", 2},
		{"\n", 1},
		{"\n\n", 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, countLines([]byte(tt.src)), "%q", tt.src)
	}
}

func TestSplitSymbolID(t *testing.T) {
	file, name := SplitSymbolID("src/Order.java::Order.confirm")
	assert.Equal(t, "src/Order.java", file)
	assert.Equal(t, "Order.confirm", name)

	file, name = SplitSymbolID("bare")
	assert.Equal(t, "", file)
	assert.Equal(t, "bare", name)

	// The name is everything after the last separator.
	file, name = SplitSymbolID("a::b::c")
	assert.Equal(t, "a::b", file)
	assert.Equal(t, "c", name)
}

func TestParseFile_Idempotent(t *testing.T) {
	src := `class A { void m(){} }`

	first := parseSource(t, "A.java", src)
	second := parseSource(t, "A.java", src)

	require.Len(t, first.Symbols, 2)
	assert.Equal(t, symbolNames(first), symbolNames(second))
	assert.Equal(t, []string{"A", "A.m"}, symbolNames(first))
}

func TestParseFile_EmptySource(t *testing.T) {
	java := parseSource(t, "Empty.java", "")
	assert.Equal(t, 0, java.Record.LineCount)
	assert.Empty(t, java.Symbols)
	assert.Empty(t, java.Record.Functions)
	assert.Nil(t, java.Record.Exports, "exports stay unset for Java")

	ts := parseSource(t, "empty.ts", "")
	assert.Equal(t, 0, ts.Record.LineCount)
	assert.Empty(t, ts.Symbols)
	assert.NotNil(t, ts.Record.Exports, "script files always carry an exports list")
}

// Benchmark tests for performance tracking

func BenchmarkParseFile_Java(b *testing.B) {
	src := []byte(`package com.example.shop;

import java.util.List;
import java.util.Map;

public class OrderService {
	private final Map<String, Order> orders;

	public OrderService(Map<String, Order> orders) {
		this.orders = orders;
	}

	public Receipt submit(Order order) {
		validate(order);
		persist(order);
		return buildReceipt(order);
	}

	private void validate(Order order) {
		if (order == null) {
			throw new IllegalArgumentException("order required");
		}
	}

	private void persist(Order order) {
		orders.put(order.id(), order);
	}

	private Receipt buildReceipt(Order order) {
		return new Receipt(order.id());
	}

	public List<Order> pending() {
		return List.copyOf(orders.values());
	}
}
`)
	p := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = p.ParseFile(ctx, "OrderService.java", src)
	}
}

func BenchmarkParseFile_TypeScript(b *testing.B) {
	src := []byte(`import { Logger } from "./logger";

export interface CartEntry {
	sku: string;
	quantity: number;
}

export class Cart {
	private entries: CartEntry[] = [];

	addItem(entry: CartEntry): void {
		this.entries.push(entry);
		this.recalculate();
	}

	removeItem(sku: string): void {
		this.entries = this.entries.filter((e) => e.sku !== sku);
		this.recalculate();
	}

	private recalculate(): void {
		log("cart updated");
	}
}

export function formatTotal(cents: number): string {
	return (cents / 100).toFixed(2);
}

function log(message: string): void {
	console.log(message);
}
`)
	p := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = p.ParseFile(ctx, "cart.ts", src)
	}
}
