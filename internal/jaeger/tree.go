package jaeger

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// Node is a span with its children, ordered by start time.
type Node struct {
	Span     Span
	Children []*Node
}

// Tree arranges t's spans by CHILD_OF reference. Spans whose parent is not
// in the trace are returned as roots.
func Tree(t Trace) []*Node {
	nodes := make(map[string]*Node, len(t.Spans))
	for _, s := range t.Spans {
		nodes[s.SpanID] = &Node{Span: s}
	}

	var roots []*Node
	for _, s := range t.Spans {
		node := nodes[s.SpanID]
		if parent, ok := nodes[s.ParentSpanID()]; ok && parent != node {
			parent.Children = append(parent.Children, node)
			continue
		}
		roots = append(roots, node)
	}

	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Span.StartTime < nodes[j].Span.StartTime
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

// Count returns the number of spans under and including n.
func (n *Node) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// PrintTree writes t as an indented outline with durations and tags.
func PrintTree(w io.Writer, t Trace) {
	fmt.Fprintf(w, "trace %s (%d spans, services: %s)\n", t.TraceID, len(t.Spans), strings.Join(t.Services(), ", "))
	for _, root := range Tree(t) {
		printNode(w, t, root, "", true)
	}
}

func printNode(w io.Writer, t Trace, n *Node, prefix string, last bool) {
	branch, next := "├── ", "│   "
	if last {
		branch, next = "└── ", "    "
	}

	duration := time.Duration(n.Span.Duration) * time.Microsecond
	fmt.Fprintf(w, "%s%s%s [%s] %s\n", prefix, branch, n.Span.OperationName, t.ServiceName(n.Span), duration)

	for _, kv := range n.Span.Tags {
		if strings.HasPrefix(kv.Key, "otel.") || kv.Key == "span.kind" {
			continue
		}
		fmt.Fprintf(w, "%s%s    %s=%v\n", prefix, next, kv.Key, kv.Value)
	}

	for i, c := range n.Children {
		printNode(w, t, c, prefix+next, i == len(n.Children)-1)
	}
}
