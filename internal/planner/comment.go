package planner

import (
	"fmt"
	"strconv"
	"strings"
)

// Serialize renders the payload as the compact key/value block spec.md §6
// embeds into the output container's comment metadata. The "comment" line
// carries the exact sentinel skip rule 1 later tests a prior run's output
// against.
func (c CommentPayload) Serialize() string {
	var b strings.Builder
	fmt.Fprintf(&b, "comment: %s\n", c.Comment)
	fmt.Fprintf(&b, "encoders: %s\n", strings.Join(c.Encoders, ", "))
	fmt.Fprintf(&b, "CRF: %d\n", c.CRF)
	fmt.Fprintf(&b, "source file: %s\n", c.SourceFile)
	fmt.Fprintf(&b, "source file size: %s\n", c.SourceFileSize)
	fmt.Fprintf(&b, "source file md5: %s\n", c.SourceFileMD5)
	fmt.Fprintf(&b, "source file sha256: %s\n", c.SourceFileSHA256)
	fmt.Fprintf(&b, "estimated ratio: %s", strconv.FormatFloat(c.EstimatedRatio, 'f', 4, 64))
	return b.String()
}
