package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// NTriplesWriter writes triples in N-Triples format, one statement per line.
type NTriplesWriter struct {
	w *bufio.Writer
	n int
}

// NewNTriplesWriter wraps w. Call Flush when done.
func NewNTriplesWriter(w io.Writer) *NTriplesWriter {
	return &NTriplesWriter{w: bufio.NewWriter(w)}
}

// Write encodes one triple.
func (nw *NTriplesWriter) Write(t Triple) error {
	if t.S == nil || t.O == nil || t.P.Value == "" {
		return fmt.Errorf("incomplete triple: %v", t)
	}
	var sb strings.Builder
	writeTriple(&sb, t)
	sb.WriteByte('\n')
	if _, err := nw.w.WriteString(sb.String()); err != nil {
		return fmt.Errorf("write triple: %w", err)
	}
	nw.n++
	return nil
}

// Count returns the number of triples written so far.
func (nw *NTriplesWriter) Count() int {
	return nw.n
}

// Flush writes buffered data to the underlying writer.
func (nw *NTriplesWriter) Flush() error {
	return nw.w.Flush()
}

// EncodeNTriples renders triples as an N-Triples document in input order.
func EncodeNTriples(ts []Triple) string {
	var sb strings.Builder
	for _, t := range ts {
		writeTriple(&sb, t)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func writeTriple(sb *strings.Builder, t Triple) {
	writeTerm(sb, t.S)
	sb.WriteByte(' ')
	writeTerm(sb, t.P)
	sb.WriteByte(' ')
	writeTerm(sb, t.O)
	sb.WriteString(" .")
}

func writeTerm(sb *strings.Builder, term Term) {
	switch v := term.(type) {
	case IRI:
		sb.WriteByte('<')
		writeEscapedIRI(sb, v.Value)
		sb.WriteByte('>')
	case BlankNode:
		sb.WriteString("_:")
		sb.WriteString(v.ID)
	case Literal:
		sb.WriteByte('"')
		writeEscapedLiteral(sb, v.Lexical)
		sb.WriteByte('"')
		switch {
		case v.Lang != "":
			sb.WriteByte('@')
			sb.WriteString(v.Lang)
		case v.Datatype.Value != "" && v.Datatype != XSDString:
			sb.WriteString("^^<")
			writeEscapedIRI(sb, v.Datatype.Value)
			sb.WriteByte('>')
		}
	case nil:
		sb.WriteString("<>")
	}
}

// writeEscapedLiteral applies the N-Triples ECHAR escapes.
func writeEscapedLiteral(sb *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
}

// writeEscapedIRI escapes characters that are not allowed inside an
// N-Triples IRIREF using UCHAR sequences.
func writeEscapedIRI(sb *strings.Builder, s string) {
	for _, r := range s {
		if r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r) {
			fmt.Fprintf(sb, `\u%04X`, r)
			continue
		}
		sb.WriteRune(r)
	}
}
