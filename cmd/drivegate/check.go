package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"drivegate/acl"
)

var checkCmd = &cobra.Command{
	Use:   "check <path>",
	Short: "Evaluate the policy for a path",
	Long: `Load the ACL file and print the access decision for every user and
group against the given path. Useful for verifying a policy edit before
reloading the server.`,
	Example: "  drivegate check /public/report.pdf",
	Args:    cobra.ExactArgs(1),
	RunE:    runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadEnv()
	if err != nil {
		return err
	}
	policy, err := acl.Load(cfg.ACLPath)
	if err != nil {
		return err
	}

	path := acl.NormalizePath(args[0])
	stats := policy.Stats()
	fmt.Printf("policy %s: %d users, %d groups, %d rules",
		cfg.ACLPath, stats.Users, stats.Groups, stats.Rules)
	if stats.DroppedRules > 0 {
		fmt.Printf(" (%d dropped: unknown principals)", stats.DroppedRules)
	}
	fmt.Printf("\naccess to %s:\n\n", path)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	decide := func(p acl.Principal) string {
		if policy.CanAccess(p, path) {
			return "allow"
		}
		return "deny"
	}
	for _, name := range policy.GroupNames() {
		g, _ := policy.Group(name)
		fmt.Fprintf(w, "%s\t%s\n", acl.Identity(g), decide(g))
	}
	for _, name := range policy.Usernames() {
		u, _ := policy.User(name)
		fmt.Fprintf(w, "%s\t%s\n", acl.Identity(u), decide(u))
	}
	return w.Flush()
}
