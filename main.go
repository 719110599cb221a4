// Package main is the entry point of the annoq CLI.
package main

import (
	"github.com/huangsam/annoq/cmd"
	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/internal/store"
)

func main() {
	defer store.CloseStores()
	cmd.SetStoreManager(store.Global)

	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Error starting CLI", err)
	}
	if err := cmd.StopProfiling(); err != nil {
		contract.LogWarn("Failed to stop profiling", err)
	}
}
