// Package ply reads PLY file headers. The pipeline uses it only to report
// point counts for produced artifacts; it never touches vertex data.
package ply

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// headerLimit bounds how many header lines are read before giving up on a
// malformed file.
const headerLimit = 256

// Property is one vertex property declaration.
type Property struct {
	Type string
	Name string
}

// Header is the parsed PLY header.
type Header struct {
	Format      string // ascii, binary_little_endian, binary_big_endian
	VertexCount int
	Properties  []Property
}

// ParseHeader reads a PLY header from r. It stops at end_header and leaves
// the reader positioned at the start of the data section.
func ParseHeader(r io.Reader) (*Header, error) {
	br := bufio.NewReader(r)

	magic, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != "ply" {
		return nil, fmt.Errorf("not a PLY file (got %q)", magic)
	}

	h := &Header{VertexCount: -1}
	inVertexElement := false

	for i := 0; i < headerLimit; i++ {
		line, err := readLine(br)
		if err != nil {
			return nil, fmt.Errorf("truncated header: %w", err)
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "end_header":
			if h.Format == "" {
				return nil, fmt.Errorf("header missing format declaration")
			}
			if h.VertexCount < 0 {
				return nil, fmt.Errorf("header missing vertex element")
			}
			return h, nil
		case "format":
			if len(fields) < 2 {
				return nil, fmt.Errorf("malformed format line %q", line)
			}
			h.Format = fields[1]
		case "element":
			if len(fields) < 3 {
				return nil, fmt.Errorf("malformed element line %q", line)
			}
			inVertexElement = fields[1] == "vertex"
			if inVertexElement {
				n, err := strconv.Atoi(fields[2])
				if err != nil || n < 0 {
					return nil, fmt.Errorf("bad vertex count %q", fields[2])
				}
				h.VertexCount = n
			}
		case "property":
			if inVertexElement && len(fields) >= 3 && fields[1] != "list" {
				h.Properties = append(h.Properties, Property{Type: fields[1], Name: fields[2]})
			}
		case "comment", "obj_info":
			// ignored
		}
	}

	return nil, fmt.Errorf("header longer than %d lines", headerLimit)
}

// CountVertices opens the PLY file at path and returns its declared vertex
// count.
func CountVertices(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h, err := ParseHeader(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return h.VertexCount, nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
