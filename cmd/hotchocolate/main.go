package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/daviddesmet/hotchocolate/internal/compiler"
	"github.com/daviddesmet/hotchocolate/internal/eventbus"
	"github.com/daviddesmet/hotchocolate/internal/language"
	"github.com/daviddesmet/hotchocolate/internal/metadata"
	"github.com/daviddesmet/hotchocolate/internal/otel"
	"github.com/daviddesmet/hotchocolate/internal/planner"
)

const rootUsage = `hotchocolate — GraphQL operation compiler

USAGE:
  hotchocolate <command> [flags]

COMMANDS:
  plan             Compile a query against an SDL schema into a query plan
  parse            Parse a query document and print its normalized form
  help             Show help for any command
`

const planUsage = `plan FLAGS:
  -schema <file>      SDL schema file (required)
  -query <file>       Query document file (required)
  -operation <name>   Operation to compile (required for multi-operation documents)
  -format <json|text> Output format (default: text)
  -pretty             Indent JSON output
  -otel.endpoint <addr>  OTLP collector endpoint
  -otel.service <name>   OpenTelemetry service name (default: hotchocolate)
`

const parseUsage = `parse FLAGS:
  -query <file>  Query document file (required)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := args[0]
	cmdArgs := args[1:]
	switch cmd {
	case "plan":
		return cmdPlan(cmdArgs)
	case "parse":
		return cmdParse(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "plan":
		fmt.Print(planUsage)
	case "parse":
		fmt.Print(parseUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func cmdPlan(args []string) error {
	schemaPath := ""
	queryPath := ""
	operationName := ""
	format := "text"
	pretty := false
	otelEndpoint := ""
	otelService := "hotchocolate"

	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaPath, "schema", schemaPath, "SDL schema file")
	fs.StringVar(&queryPath, "query", queryPath, "Query document file")
	fs.StringVar(&operationName, "operation", operationName, "Operation to compile")
	fs.StringVar(&format, "format", format, "Output format")
	fs.BoolVar(&pretty, "pretty", pretty, "Indent JSON output")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, planUsage)
		return err
	}
	if schemaPath == "" || queryPath == "" {
		fmt.Fprint(os.Stderr, planUsage)
		return fmt.Errorf("-schema and -query are required")
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer shutdown(context.Background())

	sdl, err := os.ReadFile(schemaPath)
	if err != nil {
		return err
	}
	resolver, err := metadata.LoadSchema(schemaPath, string(sdl))
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}

	query, err := os.ReadFile(queryPath)
	if err != nil {
		return err
	}
	comp := compiler.New(resolver, compiler.Options{})
	plan, err := comp.Compile(context.Background(), string(query), operationName)
	if err != nil {
		return err
	}

	switch format {
	case "text":
		fmt.Print(planner.PrintPlan(plan))
		return nil
	case "json":
		var out []byte
		if pretty {
			out, err = json.MarshalIndent(plan, "", "  ")
		} else {
			out, err = json.Marshal(plan)
		}
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func cmdParse(args []string) error {
	queryPath := ""

	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&queryPath, "query", queryPath, "Query document file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, parseUsage)
		return err
	}
	if queryPath == "" {
		fmt.Fprint(os.Stderr, parseUsage)
		return fmt.Errorf("-query is required")
	}

	query, err := os.ReadFile(queryPath)
	if err != nil {
		return err
	}
	doc, err := language.ParseQuery(string(query))
	if err != nil {
		return err
	}
	fmt.Println(language.PrintDocument(doc))
	return nil
}
