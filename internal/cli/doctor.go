package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/restormel-dev/restormel/internal/config"
	"github.com/restormel-dev/restormel/internal/project"
	"github.com/restormel-dev/restormel/internal/walker"
)

type doctorCheck struct {
	Name   string
	Status string // "✓", "✗" or "⊘"
	Detail string
	Error  error
}

func newDoctorCmd(g *globals, loc project.Locator) *cobra.Command {
	flags := &runtimeFlagSet{}
	var timeout int

	if loc == nil {
		loc = project.NewLocator()
	}

	cmd := &cobra.Command{
		Use:   "doctor [dir]",
		Short: "Validate configuration, patterns, and the project layout",
		Long: `The doctor subcommand performs read-only checks of the audit environment:
- Go runtime version
- Configuration validity and pattern compilation
- Presence of the directory to audit
- Project kind, package manager, and audit script`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := flags.toOverrides(cmd.Flags())
			if len(args) == 1 {
				overrides.Root = args[0]
			}

			cfg, err := g.loader.Load(overrides)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeout)*time.Second)
			defer cancel()

			checks := runDoctorChecks(ctx, &cfg, loc)
			printDoctorReport(cmd, checks)

			for _, check := range checks {
				if check.Error != nil {
					return fmt.Errorf("doctor checks failed")
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "\n✓ All checks passed. Ready to audit.")
			return nil
		},
	}

	bindRuntimeFlags(cmd, flags)
	cmd.Flags().IntVar(&timeout, "timeout", 10, "Timeout in seconds for package manager checks")

	return cmd
}

func runDoctorChecks(ctx context.Context, cfg *config.RuntimeConfig, loc project.Locator) []doctorCheck {
	checks := []doctorCheck{checkGoVersion()}

	configCheck := checkConfiguration(cfg)
	checks = append(checks, configCheck)
	if configCheck.Error != nil {
		return checks
	}

	checks = append(checks, checkPatterns(cfg))

	rootCheck, root := checkRootDirectory(cfg.Root)
	checks = append(checks, rootCheck)
	if rootCheck.Status != "✓" {
		return checks
	}

	inspection := project.Inspect(root, loc)
	checks = append(checks,
		checkProjectKind(inspection),
		checkPackageManager(ctx, inspection, loc),
		checkAuditScript(inspection),
	)

	return checks
}

func checkGoVersion() doctorCheck {
	return doctorCheck{
		Name:   "Go Runtime",
		Status: "✓",
		Detail: fmt.Sprintf("Version %s", runtime.Version()),
	}
}

func checkConfiguration(cfg *config.RuntimeConfig) doctorCheck {
	if err := cfg.Validate(); err != nil {
		return doctorCheck{
			Name:   "Configuration",
			Status: "✗",
			Detail: "Invalid configuration",
			Error:  err,
		}
	}

	return doctorCheck{
		Name:   "Configuration",
		Status: "✓",
		Detail: fmt.Sprintf("%d extensions, %d ignored names, format=%s", len(cfg.Extensions), len(cfg.Ignore), cfg.Format),
	}
}

func checkPatterns(cfg *config.RuntimeConfig) doctorCheck {
	catalog, err := cfg.Catalog()
	if err != nil {
		return doctorCheck{
			Name:   "Pattern Catalog",
			Status: "✗",
			Detail: "Pattern failed to compile",
			Error:  err,
		}
	}

	secrets, dangerous := catalog.Size()
	return doctorCheck{
		Name:   "Pattern Catalog",
		Status: "✓",
		Detail: fmt.Sprintf("%d secret, %d dangerous-API patterns", secrets, dangerous),
	}
}

// checkRootDirectory resolves dir the way audit does and returns the check
// along with the resolved path.
func checkRootDirectory(dir string) (doctorCheck, string) {
	check := doctorCheck{Name: "Audit Root", Detail: dir}

	root, err := walker.ResolveRoot(dir)
	if err != nil {
		check.Status = "✗"
		check.Error = err
		return check, ""
	}
	check.Detail = root

	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		check.Status = "⊘"
		check.Detail = root + " (missing; nothing to scan)"
	case err != nil:
		check.Status = "✗"
		check.Error = err
	case !info.IsDir():
		check.Status = "✗"
		check.Error = fmt.Errorf("%s is not a directory", root)
	default:
		check.Status = "✓"
	}
	return check, root
}

func checkProjectKind(in project.Inspection) doctorCheck {
	detail := "package.json found"
	if in.Kind == project.KindNew {
		detail = "no package.json (new project)"
	}
	return doctorCheck{Name: "Project", Status: "✓", Detail: detail}
}

func checkPackageManager(ctx context.Context, in project.Inspection, loc project.Locator) doctorCheck {
	name := string(in.PackageManager)
	if in.BinaryErr != nil {
		return doctorCheck{
			Name:   "Package Manager",
			Status: "⊘",
			Detail: name + " (not found in PATH)",
		}
	}

	detail := name + " at " + in.BinaryPath
	if v, err := loc.Version(ctx, name); err == nil {
		detail = fmt.Sprintf("%s %s at %s", name, v, in.BinaryPath)
	}
	return doctorCheck{Name: "Package Manager", Status: "✓", Detail: detail}
}

func checkAuditScript(in project.Inspection) doctorCheck {
	if in.AuditScript == "" {
		return doctorCheck{Name: "Audit Script", Status: "⊘", Detail: `no "audit" script in package.json`}
	}
	return doctorCheck{Name: "Audit Script", Status: "✓", Detail: in.AuditScript}
}

func printDoctorReport(cmd *cobra.Command, checks []doctorCheck) {
	fmt.Fprintln(cmd.OutOrStdout(), "Running environment diagnostics...")

	for _, check := range checks {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %-30s %s\n", check.Status, check.Name+":", check.Detail)
		if check.Error != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "   Error: %v\n", check.Error)
		}
	}
}
