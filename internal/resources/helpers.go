package resources

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// errorResource wraps a failure as readable resource contents, for
// hosts that render resource bodies but not resource errors.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
