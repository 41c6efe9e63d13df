// cmd/tools/parse-debug/main.go
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"workflow-chat/internal/common/logger"
	"workflow-chat/internal/parser"
	"workflow-chat/pkg/registry"
)

func main() {
	parseCmd := flag.NewFlagSet("parse", flag.ExitOnError)
	textParse := parseCmd.String("text", "", "Command text to parse")
	workflows := parseCmd.String("workflows", "", "Comma-separated known workflow names (context hint)")
	registryPath := parseCmd.String("registry", "", "Intent registry file; reports the trigger binding for the detected intent")
	verbose := parseCmd.Bool("verbose", false, "Include alternatives and structure in the output")

	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	textValidate := validateCmd.String("text", "", "Command text to parse and validate")

	batchCmd := flag.NewFlagSet("batch", flag.ExitOnError)
	file := batchCmd.String("file", "", "File with one command per line")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	log := logger.NewNoOpLogger()
	p := parser.New(parser.DefaultOptions(), log)

	switch os.Args[1] {
	case "parse":
		parseCmd.Parse(os.Args[2:])
		if *textParse == "" {
			fmt.Println("Error: text is required for parse.")
			parseCmd.Usage()
			os.Exit(1)
		}
		var pctx *parser.ParseContext
		if *workflows != "" {
			pctx = &parser.ParseContext{AvailableWorkflows: strings.Split(*workflows, ",")}
		}
		cmd := p.ParseSync(*textParse, pctx)
		if !*verbose {
			cmd.Alternatives = nil
		}
		printJSON(cmd)
		if *registryPath != "" {
			reportBinding(*registryPath, cmd)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if *textValidate == "" {
			fmt.Println("Error: text is required for validate.")
			validateCmd.Usage()
			os.Exit(1)
		}
		cmd := p.ParseSync(*textValidate, nil)
		result := p.ValidateParsedCommand(cmd)
		printJSON(result)
		if !result.IsValid {
			for _, s := range p.SuggestCorrections(cmd) {
				fmt.Printf("Suggestion: %s\n", s.Message)
			}
			os.Exit(1)
		}

	case "batch":
		batchCmd.Parse(os.Args[2:])
		if *file == "" {
			fmt.Println("Error: file is required for batch.")
			batchCmd.Usage()
			os.Exit(1)
		}
		if err := runBatch(p, *file); err != nil {
			fmt.Printf("Batch parse failed: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

// runBatch parses each line and prints a one-line summary, handy for
// eyeballing pattern changes against a corpus of real commands.
func runBatch(p *parser.Parser, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd := p.ParseSync(line, nil)
		fmt.Printf("%-18s %.2f  %q\n", cmd.Intent.Primary, cmd.Confidence, line)
	}
	return scanner.Err()
}

// reportBinding looks the detected intent up in the registry and prints its
// trigger binding, so pattern edits can be checked against routing.
func reportBinding(path string, cmd *parser.ParsedCommand) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		fmt.Printf("Error loading registry: %v\n", err)
		os.Exit(1)
	}
	def, ok := reg.Find(string(cmd.Intent.Primary))
	if !ok {
		fmt.Printf("Intent %s has no registry entry.\n", cmd.Intent.Primary)
		return
	}
	fmt.Printf("Trigger binding: backend=%s target=%s timeout=%s retries=%d\n",
		def.TriggerBinding.Backend, def.TriggerBinding.Target,
		def.TriggerBinding.Timeout, def.TriggerBinding.Retries)
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Error encoding output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func help() {
	fmt.Print(`
Usage: parse-debug <command> [flags]

Commands:
  parse    Parse one command and print the full result
  validate Parse one command and run validation, printing suggestions on failure
  batch    Parse every line of a file and print intent/confidence summaries
  help     Show this help message

Examples:
  parse-debug parse -text 'run workflow "Email Campaign" with email=user@example.com'
  parse-debug parse -text "show my workflows" -workflows "Email Campaign,Data Sync" -verbose
  parse-debug validate -text "do the thing"
  parse-debug batch -file testdata/commands.txt

Use 'parse-debug <command> -h' for more information about a command.

`)
}
