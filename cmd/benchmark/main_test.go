package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateFlags(t *testing.T) {
	defaults := func() {
		concurrency, customers, products = 10, 50, 100
		duration, workload = 30*time.Second, "uniform"
	}
	t.Cleanup(defaults)

	tests := []struct {
		name    string
		mutate  func()
		wantErr string
	}{
		{"defaults", func() {}, ""},
		{"no customers", func() { customers = 0 }, "-customers"},
		{"negative customers", func() { customers = -3 }, "-customers"},
		{"no products", func() { products = 0 }, "-products"},
		{"no workers", func() { concurrency = 0 }, "-workers"},
		{"zero duration", func() { duration = 0 }, "-duration"},
		{"unknown workload", func() { workload = "burst" }, "-workload"},
		{"hotspot with one product", func() { workload, products = "hotspot", 1 }, "-workload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defaults()
			tt.mutate()
			err := validateFlags()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
