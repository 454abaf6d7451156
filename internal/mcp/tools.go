package mcp

import "github.com/mark3labs/mcp-go/mcp"

func sessionIDParam() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Description(`Conversation to use. Defaults to "default".`),
	)
}

var sendToolDef = mcp.NewTool("assistant_send",
	mcp.WithDescription("Send one message to the wellness assistant and get its reply. "+
		"Actions such as logging water or opening a page are confirmed with a follow-up \"yes\" before they run."),
	sessionIDParam(),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("What the user typed, at most 4000 characters."),
	),
	mcp.WithString("user_id",
		mcp.Description("Signed-in user. Without it, actions that write data ask the user to log in."),
	),
	mcp.WithString("email",
		mcp.Description("Email of the signed-in user."),
	),
	mcp.WithString("display_name",
		mcp.Description("Display name of the signed-in user."),
	),
)

var stateToolDef = mcp.NewTool("assistant_state",
	mcp.WithDescription("Show where a conversation stands: idle, collecting details, or waiting for confirmation."),
	mcp.WithReadOnlyHintAnnotation(true),
	sessionIDParam(),
	mcp.WithBoolean("include_messages",
		mcp.Description("Include the full message history."),
	),
)

var resetToolDef = mcp.NewTool("assistant_reset",
	mcp.WithDescription("Forget a conversation's state and messages. Stored wellness records are kept."),
	sessionIDParam(),
)

var transcriptToolDef = mcp.NewTool("assistant_transcript",
	mcp.WithDescription("Export a conversation as JSON, YAML or Markdown. "+
		"Writes to the exports directory unless inline is set."),
	sessionIDParam(),
	mcp.WithString("format",
		mcp.Description("Output format."),
		mcp.Enum("json", "yaml", "markdown"),
	),
	mcp.WithString("path",
		mcp.Description("Destination file. Must stay inside the exports directory unless unsafe paths are allowed."),
	),
	mcp.WithBoolean("inline",
		mcp.Description("Return the transcript in the response instead of writing a file."),
	),
)

var collectionListToolDef = mcp.NewTool("collection_list",
	mcp.WithDescription("List a user's stored wellness records from one collection, newest first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("Owner of the records."),
	),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description(`Collection name, e.g. "nutrition:water" or "mental:mood".`),
	),
	mcp.WithNumber("limit",
		mcp.Description("Page size, 1 to 100. Default 20."),
	),
	mcp.WithNumber("offset",
		mcp.Description("Records to skip."),
	),
)

var sessionListToolDef = mcp.NewTool("session_list",
	mcp.WithDescription("List known conversations, most recently active first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithNumber("limit",
		mcp.Description("Page size, 1 to 100. Default 20."),
	),
	mcp.WithNumber("offset",
		mcp.Description("Sessions to skip."),
	),
)
