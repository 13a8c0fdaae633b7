package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <db> <collection> <file>",
	Short: "Bulk-load lead documents from a JSON array or NDJSON file",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[2])
		if err != nil {
			return eris.Wrapf(err, "open %s", args[2])
		}
		defer f.Close()

		docs, err := readLeadDocs(f)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return eris.Errorf("no documents found in %s", args[2])
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Store.InsertLeads(cmd.Context(), args[0], args[1], docs)
		if err != nil {
			return err
		}
		fmt.Printf("imported %d leads into %s/%s\n", n, args[0], args[1])
		return nil
	},
}

// readLeadDocs accepts either a single JSON array of documents or one
// document per line (NDJSON, the mongoexport default).
func readLeadDocs(r io.Reader) ([][]byte, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(1)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "import: read input")
	}

	if head[0] == '[' {
		var raw []json.RawMessage
		if err := json.NewDecoder(br).Decode(&raw); err != nil {
			return nil, eris.Wrap(err, "import: parse JSON array")
		}
		docs := make([][]byte, len(raw))
		for i, m := range raw {
			docs[i] = []byte(m)
		}
		return docs, nil
	}

	var docs [][]byte
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		doc := bytes.TrimSpace(scanner.Bytes())
		if len(doc) == 0 {
			continue
		}
		if !json.Valid(doc) {
			return nil, eris.Errorf("import: line %d is not valid JSON", line)
		}
		docs = append(docs, append([]byte(nil), doc...))
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "import: scan input")
	}
	return docs, nil
}

func init() {
	rootCmd.AddCommand(importCmd)
}
