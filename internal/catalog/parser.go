package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/lox/storefront-search/internal/types"
)

// maxLineSize bounds a single JSON-lines record
const maxLineSize = 1024 * 1024

// ParseFile reads a catalog file holding either a JSON array of products
// or one JSON product per line.
func ParseFile(filename string) ([]types.Product, error) {
	infile, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer infile.Close()

	products, err := Parse(infile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return products, nil
}

// Parse reads products from r, detecting the array or JSON-lines layout
func Parse(r io.Reader) ([]types.Product, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return []types.Product{}, nil
	}
	if err != nil {
		return nil, err
	}

	var products []types.Product
	if first == '[' {
		if err := json.NewDecoder(br).Decode(&products); err != nil {
			return nil, fmt.Errorf("failed to decode product array: %w", err)
		}
		for i, p := range products {
			if p.ID == "" {
				return nil, fmt.Errorf("product %d has no id", i)
			}
		}
		return products, nil
	}

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var p types.Product
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("line %d: failed to decode product: %w", lineNo, err)
		}
		if p.ID == "" {
			return nil, fmt.Errorf("line %d: product has no id", lineNo)
		}
		products = append(products, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if products == nil {
		products = []types.Product{}
	}
	return products, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
