package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"charter-hq/charter/pkg/cli"
	"charter-hq/charter/pkg/policy/resolve"
)

var policyFlags struct {
	format string
	all    bool
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect the resolved policy set",
	Long: `Inspect the resolved policy set.

The policy command shows what the engine would evaluate: documents and
profiles loaded, overrides merged, replacement migration applied.

Subcommands:
  list      - List resolved policies and their activation state
  show      - Show one policy in full detail
  normalize - Normalize the config toggle map against the documents

Examples:
  # List active policies
  charter policy list

  # List everything, disabled policies included
  charter policy list --all

  # Show one policy
  charter policy show trailing-whitespace

  # Preview toggle normalization
  charter policy normalize`,
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List resolved policies",
	Long: `List the resolved policy set with activation state, severity and
origin. Policies deprecated by a replacement migration are marked.

Examples:
  # List active policies
  charter policy list

  # Include disabled policies
  charter policy list --all

  # Output as JSON
  charter policy list --format json`,
	RunE: listPolicies,
}

var policyShowCmd = &cobra.Command{
	Use:   "show <policy-id>",
	Short: "Show one policy in full detail",
	Long: `Show one resolved policy: its descriptor origin, activation state,
effective severity, merged metadata, and the documenting prose.

Examples:
  # Show a policy
  charter policy show line-length-limit`,
	Args: cobra.ExactArgs(1),
	RunE: showPolicy,
}

var policyNormalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize the config toggle map",
	Long: `Normalize the config toggle map against the loaded documents:
toggles for unknown ids are dropped, missing ids are seeded from
descriptor defaults, and replacement migrations are applied.

The normalized map is printed as YAML ready to paste into the
policies.enabled section; the config file is not modified.

Examples:
  # Preview normalization
  charter policy normalize`,
	RunE: normalizePolicies,
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyListCmd, policyShowCmd, policyNormalizeCmd)

	policyCmd.PersistentFlags().StringVar(&policyFlags.format, "format", "text", "output format: text, json")
	policyListCmd.Flags().BoolVar(&policyFlags.all, "all", false, "include disabled policies")
}

// policyRow is the list entry shape shared by text and JSON output.
type policyRow struct {
	ID         string `json:"id"`
	Active     bool   `json:"active"`
	Severity   string `json:"severity"`
	Origin     string `json:"origin"`
	FixCapable bool   `json:"fix_capable"`
	Deprecated bool   `json:"deprecated,omitempty"`
	Error      string `json:"error,omitempty"`
}

func listPolicies(cmd *cobra.Command, args []string) error {
	runner, _, err := newRunner()
	if err != nil {
		return err
	}
	defer runner.Close()

	sess, err := runner.Session()
	if err != nil {
		return cli.NewCommandError("policy list", err)
	}

	var rows []policyRow
	for _, p := range sess.Resolution.Policies {
		if !p.Active && !policyFlags.all {
			continue
		}
		row := policyRow{
			ID:         p.ID,
			Active:     p.Active,
			Severity:   string(p.Severity),
			Origin:     string(p.Descriptor.Origin),
			FixCapable: p.FixCapable,
			Deprecated: sess.Catalog.Deprecated(p.ID),
		}
		if p.SelectorErr != nil {
			row.Error = p.SelectorErr.Error()
		}
		rows = append(rows, row)
	}

	if policyFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No policies")
		return nil
	}
	for _, row := range rows {
		state := "off"
		if row.Active {
			state = "on "
		}
		line := fmt.Sprintf("%s  %-8s %-6s  %s", state, row.Severity, row.Origin, row.ID)
		if row.FixCapable {
			line += " [fix]"
		}
		if row.Deprecated {
			line += " [deprecated]"
		}
		if row.Error != "" {
			line += fmt.Sprintf(" (selector error: %s)", row.Error)
		}
		fmt.Println(line)
	}
	return nil
}

func showPolicy(cmd *cobra.Command, args []string) error {
	runner, _, err := newRunner()
	if err != nil {
		return err
	}
	defer runner.Close()

	sess, err := runner.Session()
	if err != nil {
		return cli.NewCommandError("policy show", err)
	}

	id := args[0]
	p, ok := sess.Resolution.Get(id)
	if !ok {
		return fmt.Errorf("unknown policy %q", id)
	}

	if policyFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"id":          p.ID,
			"active":      p.Active,
			"severity":    p.Severity,
			"fix_capable": p.FixCapable,
			"origin":      p.Descriptor.Origin,
			"replaced_by": p.Descriptor.ReplacedBy,
			"metadata":    metadataMap(p),
			"prose":       p.Descriptor.Prose,
		})
	}

	fmt.Printf("Policy: %s\n", p.ID)
	fmt.Printf("  Active:    %t\n", p.Active)
	fmt.Printf("  Severity:  %s\n", p.Severity)
	fmt.Printf("  Origin:    %s (%s)\n", p.Descriptor.Origin, p.Descriptor.Location.String())
	fmt.Printf("  Fixable:   %t\n", p.FixCapable)
	if p.Descriptor.ReplacedBy != "" {
		fmt.Printf("  Replaced by: %s\n", p.Descriptor.ReplacedBy)
	}
	if p.SelectorErr != nil {
		fmt.Printf("  Selector error: %s\n", p.SelectorErr)
	}

	fmt.Println("  Metadata:")
	for _, key := range p.Metadata.Keys() {
		val := p.Metadata[key]
		if val.IsList {
			fmt.Printf("    %s: [%s]\n", key, strings.Join(val.List, ", "))
		} else {
			fmt.Printf("    %s: %s\n", key, val.Scalar)
		}
	}

	if prose := strings.TrimSpace(p.Descriptor.Prose); prose != "" {
		fmt.Println()
		fmt.Println(prose)
	}
	return nil
}

// metadataMap flattens resolved metadata for JSON output.
func metadataMap(p *resolve.Policy) map[string]any {
	out := make(map[string]any, len(p.Metadata))
	for key, val := range p.Metadata {
		if val.IsList {
			out[key] = val.List
		} else {
			out[key] = val.Scalar
		}
	}
	return out
}

func normalizePolicies(cmd *cobra.Command, args []string) error {
	runner, _, err := newRunner()
	if err != nil {
		return err
	}
	defer runner.Close()

	sess, err := runner.Session()
	if err != nil {
		return cli.NewCommandError("policy normalize", err)
	}

	if err := cli.WriteNotices(os.Stdout, sess.Notices); err != nil {
		return err
	}

	doc := map[string]any{
		"policies": map[string]any{
			"enabled": sess.Migration.Toggles,
		},
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	fmt.Println()
	os.Stdout.Write(data)
	return nil
}
