package main

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/eringen/pagesmith/scaffold"
)

// scaffoldData holds the template variables passed to every scaffold template.
type scaffoldData struct {
	ProjectName string
	SiteName    string
}

func newNewCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a new pagesmith site",
		Args:  cobra.ExactArgs(1),
		Example: "  pagesmith new my-site\n" +
			"  pagesmith new my-site --dir ~/sites",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(cmd.OutOrStdout(), dir, args[0])
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "parent directory for the new site")
	return cmd
}

func runNew(w io.Writer, parent, name string) error {
	dirName := filepath.Base(filepath.Clean(name))
	if dirName == "." || dirName == string(filepath.Separator) {
		return fmt.Errorf("invalid project name %q", name)
	}
	target := filepath.Join(parent, dirName)

	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("directory %q already exists", target)
	}

	data := scaffoldData{
		ProjectName: dirName,
		SiteName:    toTitle(dirName),
	}

	out := newOutput(w)
	out.println(out.heading("Creating new pagesmith site: " + dirName))
	out.println("")

	err := fs.WalkDir(scaffold.Templates, scaffold.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(scaffold.Root, filepath.FromSlash(path))
		if err != nil {
			return err
		}
		outPath := filepath.Join(target, relPath)

		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}

		content, err := scaffold.Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		if strings.HasSuffix(outPath, ".tmpl") {
			outPath = strings.TrimSuffix(outPath, ".tmpl")
			content, err = execute(path, content, data)
			if err != nil {
				return err
			}
		}

		switch filepath.Base(outPath) {
		case "dotenv":
			outPath = filepath.Join(filepath.Dir(outPath), ".env.example")
		case "gitignore":
			outPath = filepath.Join(filepath.Dir(outPath), ".gitignore")
		case ".gitkeep":
			return nil
		}

		if err := os.WriteFile(outPath, content, 0o644); err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}

		out.println("  " + out.success("created") + " " + outPath)
		return nil
	})
	if err != nil {
		return err
	}

	out.println("")
	out.println("Done! Next steps:")
	out.println("")
	out.println(fmt.Sprintf("  cd %s", target))
	out.println("  cp .env.example .env")
	out.println("  pagesmith serve --dev")
	out.println("")
	out.println("Edit site/templates and site/data.json, or drop routes.json, data.json")
	out.println("and assets/ next to pagesmith.yaml to override them.")
	return nil
}

func execute(name string, content []byte, data scaffoldData) ([]byte, error) {
	tmpl, err := template.New(filepath.Base(name)).
		Delims(scaffold.LeftDelim, scaffold.RightDelim).
		Option("missingkey=error").
		Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-site" -> "My Site", "mysite" -> "Mysite"
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
