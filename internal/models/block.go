package models

// BlockKind identifies the content type of a block
type BlockKind string

const (
	KindParagraph        BlockKind = "paragraph"
	KindHeading1         BlockKind = "heading_1"
	KindHeading2         BlockKind = "heading_2"
	KindHeading3         BlockKind = "heading_3"
	KindBulletedListItem BlockKind = "bulleted_list_item"
	KindNumberedListItem BlockKind = "numbered_list_item"
	KindToDo             BlockKind = "to_do"
	KindCode             BlockKind = "code"
	KindImage            BlockKind = "image"
	KindFile             BlockKind = "file"
	KindQuote            BlockKind = "quote"
	KindCallout          BlockKind = "callout"
	KindDivider          BlockKind = "divider"
	KindEmbed            BlockKind = "embed"
	KindUnsupported      BlockKind = "unsupported"
)

// Annotations is the formatting applied to a rich text run
type Annotations struct {
	Bold          bool
	Italic        bool
	Strikethrough bool
	Underline     bool
	Code          bool
	Color         string
}

// RichTextRun is a span of text sharing one set of annotations
type RichTextRun struct {
	Text        string
	Link        string
	Annotations Annotations
}

// Media describes the source of an image, file or embed block
type Media struct {
	URL string
	// Hosted is set when the URL points at a store-hosted file that expires
	Hosted bool
}

// BlockFields holds the values that only some block kinds carry
type BlockFields struct {
	Checked  bool          // to_do
	Language string        // code
	Caption  []RichTextRun // code
	Emoji    string        // callout
	Media    *Media        // image, file, embed
}

// BlockNode is one fetched content block and the subtree it owns
type BlockNode struct {
	ID          string
	Kind        BlockKind
	SourceType  string
	RichText    []RichTextRun
	Fields      BlockFields
	HasChildren bool
	Children    []*BlockNode
}

// PlainText joins the text of every run in the block
func (b *BlockNode) PlainText() string {
	var text string
	for _, run := range b.RichText {
		text += run.Text
	}
	return text
}

// CountBlocks returns the number of blocks in a forest, nested ones included
func CountBlocks(nodes []*BlockNode) int {
	count := 0
	stack := append([]*BlockNode(nil), nodes...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		stack = append(stack, n.Children...)
	}
	return count
}
