// Package blocks fetches a page's block tree from Notion and converts it into
// blocks that can be appended to another page.
package blocks

import (
	"github.com/jomei/notionapi"
	"github.com/takak2166/notionmigrate/internal/logger"
	"github.com/takak2166/notionmigrate/internal/models"
)

// Decode maps one block returned by the store onto a BlockNode. Children are
// not attached; HasChildren tells the fetcher whether to list them.
func Decode(block notionapi.Block) *models.BlockNode {
	node := &models.BlockNode{
		ID:         string(block.GetID()),
		SourceType: string(block.GetType()),
	}

	var basic notionapi.BasicBlock
	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		basic = b.BasicBlock
		node.Kind = models.KindParagraph
		node.RichText = decodeRichText(b.Paragraph.RichText)
	case *notionapi.Heading1Block:
		basic = b.BasicBlock
		node.Kind = models.KindHeading1
		node.RichText = decodeRichText(b.Heading1.RichText)
	case *notionapi.Heading2Block:
		basic = b.BasicBlock
		node.Kind = models.KindHeading2
		node.RichText = decodeRichText(b.Heading2.RichText)
	case *notionapi.Heading3Block:
		basic = b.BasicBlock
		node.Kind = models.KindHeading3
		node.RichText = decodeRichText(b.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		basic = b.BasicBlock
		node.Kind = models.KindBulletedListItem
		node.RichText = decodeRichText(b.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		basic = b.BasicBlock
		node.Kind = models.KindNumberedListItem
		node.RichText = decodeRichText(b.NumberedListItem.RichText)
	case *notionapi.ToDoBlock:
		basic = b.BasicBlock
		node.Kind = models.KindToDo
		node.RichText = decodeRichText(b.ToDo.RichText)
		node.Fields.Checked = b.ToDo.Checked
	case *notionapi.CodeBlock:
		basic = b.BasicBlock
		node.Kind = models.KindCode
		node.RichText = decodeRichText(b.Code.RichText)
		node.Fields.Language = b.Code.Language
		node.Fields.Caption = decodeRichText(b.Code.Caption)
	case *notionapi.QuoteBlock:
		basic = b.BasicBlock
		node.Kind = models.KindQuote
		node.RichText = decodeRichText(b.Quote.RichText)
	case *notionapi.CalloutBlock:
		basic = b.BasicBlock
		node.Kind = models.KindCallout
		node.RichText = decodeRichText(b.Callout.RichText)
		if icon := b.Callout.Icon; icon != nil {
			if icon.Emoji != nil {
				node.Fields.Emoji = string(*icon.Emoji)
			} else {
				logger.Warn("Callout icon is not an emoji and is dropped", map[string]interface{}{
					"block_id":  string(b.ID),
					"icon_type": string(icon.Type),
				})
			}
		}
	case *notionapi.DividerBlock:
		basic = b.BasicBlock
		node.Kind = models.KindDivider
	case *notionapi.ImageBlock:
		basic = b.BasicBlock
		node.Kind = models.KindImage
		node.RichText = decodeRichText(b.Image.Caption)
		node.Fields.Media = decodeMedia(b.Image.File, b.Image.External)
	case *notionapi.FileBlock:
		basic = b.BasicBlock
		node.Kind = models.KindFile
		node.RichText = decodeRichText(b.File.Caption)
		node.Fields.Media = decodeMedia(b.File.File, b.File.External)
	case *notionapi.EmbedBlock:
		basic = b.BasicBlock
		node.Kind = models.KindEmbed
		node.RichText = decodeRichText(b.Embed.Caption)
		if b.Embed.URL != "" {
			node.Fields.Media = &models.Media{URL: b.Embed.URL}
		}
	case *notionapi.ToggleBlock:
		// Kept as unsupported; its text travels with the marker.
		basic = b.BasicBlock
		node.Kind = models.KindUnsupported
		node.RichText = decodeRichText(b.Toggle.RichText)
	default:
		node.Kind = models.KindUnsupported
		if hc, ok := block.(interface{ GetHasChildren() bool }); ok {
			node.HasChildren = hc.GetHasChildren()
		}
		return node
	}

	node.HasChildren = basic.HasChildren
	return node
}

func decodeRichText(rich []notionapi.RichText) []models.RichTextRun {
	if len(rich) == 0 {
		return nil
	}
	runs := make([]models.RichTextRun, 0, len(rich))
	for _, rt := range rich {
		run := models.RichTextRun{
			Text: rt.PlainText,
			Link: rt.Href,
		}
		if rt.Text != nil {
			if run.Text == "" {
				run.Text = rt.Text.Content
			}
			if run.Link == "" && rt.Text.Link != nil {
				run.Link = rt.Text.Link.Url
			}
		}
		if rt.Annotations != nil {
			run.Annotations = models.Annotations{
				Bold:          rt.Annotations.Bold,
				Italic:        rt.Annotations.Italic,
				Strikethrough: rt.Annotations.Strikethrough,
				Underline:     rt.Annotations.Underline,
				Code:          rt.Annotations.Code,
				Color:         string(rt.Annotations.Color),
			}
		}
		runs = append(runs, run)
	}
	return runs
}

func decodeMedia(file, external *notionapi.FileObject) *models.Media {
	if external != nil && external.URL != "" {
		return &models.Media{URL: external.URL}
	}
	if file != nil && file.URL != "" {
		return &models.Media{URL: file.URL, Hosted: true}
	}
	return nil
}
