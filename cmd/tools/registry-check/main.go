// cmd/tools/registry-check/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"prompt-access/pkg/registry"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	inputCmd := flag.NewFlagSet("check-input", flag.ExitOnError)

	validatePath := validateCmd.String("path", "", "Registry file (default: the embedded registry)")
	listPath := listCmd.String("path", "", "Registry file (default: the embedded registry)")
	inputPath := inputCmd.String("path", "", "Registry file (default: the embedded registry)")
	taskType := inputCmd.String("taskType", "", "Task type whose input schema to check against (e.g., compile-prompt)")
	varsFile := inputCmd.String("vars", "", "JSON file with job variables")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg := mustLoad(*validatePath)
		if err := reg.Validate(); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed (%d activities).\n", len(reg.Activities))

	case "list":
		listCmd.Parse(os.Args[2:])
		reg := mustLoad(*listPath)
		for _, a := range reg.Activities {
			fmt.Printf("%-26s %-16s %-8s %-6s %d  %s\n", a.ID, a.TaskType, a.Version, a.JobTimeout(), a.Retries, strings.Join(a.ErrorCodes, ","))
		}

	case "check-input":
		inputCmd.Parse(os.Args[2:])
		if *taskType == "" || *varsFile == "" {
			fmt.Println("Error: taskType and vars are required for check-input.")
			inputCmd.Usage()
			os.Exit(1)
		}
		if err := checkInput(mustLoad(*inputPath), *taskType, *varsFile); err != nil {
			fmt.Printf("Input check failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Input is valid.")

	case "help":
		fallthrough
	default:
		help()
	}
}

func mustLoad(path string) *registry.ActivityRegistry {
	var (
		reg *registry.ActivityRegistry
		err error
	)
	if path == "" {
		reg, err = registry.Default()
	} else {
		reg, err = registry.LoadRegistry(path)
	}
	if err != nil {
		fmt.Printf("Error loading registry: %v\n", err)
		os.Exit(1)
	}
	return reg
}

func checkInput(reg *registry.ActivityRegistry, taskType, varsFile string) error {
	activity, ok := reg.Find(taskType)
	if !ok {
		return fmt.Errorf("no activity with task type %s", taskType)
	}

	data, err := os.ReadFile(varsFile)
	if err != nil {
		return err
	}
	var vars map[string]interface{}
	if err := json.Unmarshal(data, &vars); err != nil {
		return fmt.Errorf("parse %s: %w", varsFile, err)
	}

	result, err := activity.ValidateInput(vars)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("%s", strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}

func help() {
	fmt.Println("Usage: registry-check <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  validate     Validate the activity registry")
	fmt.Println("  list         List registered activities")
	fmt.Println("  check-input  Check job variables against an activity's input schema")
	fmt.Println("  help         Show this help message")
}
