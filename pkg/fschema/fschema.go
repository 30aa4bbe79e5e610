// SPDX-License-Identifier: BSD-3-Clause

package fschema

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

// FileType selects how a file node's data is interpreted.
type FileType string

const (
	// Text writes data verbatim.
	Text FileType = "Text"
	// Copy copies the file at data.
	Copy FileType = "Copy"
	// Pipe runs data as a shell command and writes its stdout.
	Pipe FileType = "Pipe"
	// Link creates a symlink pointing at data.
	Link FileType = "Link"
)

// FileOptions tune one file node.
type FileOptions struct {
	Type FileType `json:"ftype,omitempty"`
	Mode uint32   `json:"mode,omitempty"`
}

// Node is one entry of the tree: a file or a directory of child nodes.
type Node struct {
	Data    string
	Options FileOptions
	Dir     map[string]Node
}

// UnmarshalJSON decodes the schema's node form: a bare string is an
// inline text file, {"data":...,"options":{...}} an annotated file,
// and any other object a directory.
func (n *Node) UnmarshalJSON(raw []byte) error {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		n.Data = text
		return nil
	}
	var annotated struct {
		Data    string       `json:"data"`
		Options *FileOptions `json:"options"`
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}
	if _, hasData := probe["data"]; hasData {
		if err := json.Unmarshal(raw, &annotated); err != nil {
			return fmt.Errorf("%w: %w", ErrParse, err)
		}
		n.Data = annotated.Data
		if annotated.Options != nil {
			n.Options = *annotated.Options
		}
		return nil
	}
	n.Dir = make(map[string]Node, len(probe))
	for name, childRaw := range probe {
		var child Node
		if err := child.UnmarshalJSON(childRaw); err != nil {
			return err
		}
		n.Dir[name] = child
	}
	return nil
}

// Schema is a declarative file tree plus optional shell hooks run
// before and after materialization.
type Schema struct {
	Root      map[string]Node `json:"root"`
	Prebuild  string          `json:"prebuild,omitempty"`
	Postbuild string          `json:"postbuild,omitempty"`
}

// Parse decodes a schema document.
func Parse(raw []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return &s, nil
}

// ParseFile decodes the schema document at path.
func ParseFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return Parse(raw)
}

// Create materializes the schema under root.
func (s *Schema) Create(root string) error {
	if s.Prebuild != "" {
		if err := runHook(s.Prebuild); err != nil {
			return err
		}
	}
	if err := createDir(root, s.Root); err != nil {
		return err
	}
	if s.Postbuild != "" {
		if err := runHook(s.Postbuild); err != nil {
			return err
		}
	}
	return nil
}

func createDir(root string, nodes map[string]Node) error {
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		node := nodes[name]
		path := filepath.Join(root, name)
		if node.Dir != nil {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrCreate, path, err)
			}
			if err := createDir(path, node.Dir); err != nil {
				return err
			}
			continue
		}
		if err := createFile(path, node); err != nil {
			return err
		}
	}
	return nil
}

func createFile(path string, node Node) error {
	ftype := node.Options.Type
	if ftype == "" {
		ftype = Text
	}
	switch ftype {
	case Text:
		if err := os.WriteFile(path, []byte(node.Data), 0o644); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCreate, path, err)
		}
	case Copy:
		src, err := os.Open(node.Data)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCreate, path, err)
		}
		defer src.Close()
		dst, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCreate, path, err)
		}
		defer dst.Close()
		if _, err := io.Copy(dst, src); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCreate, path, err)
		}
	case Link:
		if err := os.Symlink(node.Data, path); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCreate, path, err)
		}
	case Pipe:
		out, err := exec.Command("/bin/sh", "-c", node.Data).Output()
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCommand, node.Data, err)
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCreate, path, err)
		}
	default:
		return fmt.Errorf("%w: %s: unknown file type %q", ErrParse, path, ftype)
	}

	if node.Options.Mode != 0 && ftype != Link {
		if err := os.Chmod(path, os.FileMode(node.Options.Mode)); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCreate, path, err)
		}
	}
	return nil
}

func runHook(command string) error {
	cmd := exec.Command("/bin/sh", "-c", command)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCommand, command, err)
	}
	return nil
}
