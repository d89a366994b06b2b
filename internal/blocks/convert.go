package blocks

import (
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/takak2166/notionmigrate/internal/logger"
	"github.com/takak2166/notionmigrate/internal/models"
)

const defaultCodeLanguage = "plain text"

// AppendableBlock is a converted block together with the converted children
// that have to be appended below it once it exists in the target page
type AppendableBlock struct {
	Block    notionapi.Block
	Children []AppendableBlock
}

// ConvertForest converts root blocks in order
func ConvertForest(nodes []*models.BlockNode) ([]AppendableBlock, error) {
	converted := make([]AppendableBlock, 0, len(nodes))
	for _, node := range nodes {
		c, err := Convert(node)
		if err != nil {
			return nil, err
		}
		converted = append(converted, c)
	}
	return converted, nil
}

// Convert turns a fetched block and its subtree into appendable blocks
func Convert(node *models.BlockNode) (AppendableBlock, error) {
	if node == nil {
		return AppendableBlock{}, models.Errorf(models.KindConversion, "convert", "nil block")
	}

	block, err := convertBlock(node)
	if err != nil {
		return AppendableBlock{}, err
	}

	children, err := ConvertForest(node.Children)
	if err != nil {
		return AppendableBlock{}, err
	}
	return AppendableBlock{Block: block, Children: children}, nil
}

func convertBlock(node *models.BlockNode) (notionapi.Block, error) {
	richText := convertRichText(node.RichText)

	switch node.Kind {
	case models.KindParagraph:
		return paragraphBlock(richText), nil
	case models.KindHeading1:
		return &notionapi.Heading1Block{
			BasicBlock: basicBlock(notionapi.BlockTypeHeading1),
			Heading1:   notionapi.Heading{RichText: richText},
		}, nil
	case models.KindHeading2:
		return &notionapi.Heading2Block{
			BasicBlock: basicBlock(notionapi.BlockTypeHeading2),
			Heading2:   notionapi.Heading{RichText: richText},
		}, nil
	case models.KindHeading3:
		return &notionapi.Heading3Block{
			BasicBlock: basicBlock(notionapi.BlockTypeHeading3),
			Heading3:   notionapi.Heading{RichText: richText},
		}, nil
	case models.KindBulletedListItem:
		return &notionapi.BulletedListItemBlock{
			BasicBlock:       basicBlock(notionapi.BlockTypeBulletedListItem),
			BulletedListItem: notionapi.ListItem{RichText: richText},
		}, nil
	case models.KindNumberedListItem:
		return &notionapi.NumberedListItemBlock{
			BasicBlock:       basicBlock(notionapi.BlockTypeNumberedListItem),
			NumberedListItem: notionapi.ListItem{RichText: richText},
		}, nil
	case models.KindToDo:
		return &notionapi.ToDoBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeToDo),
			ToDo: notionapi.ToDo{
				RichText: richText,
				Checked:  node.Fields.Checked,
			},
		}, nil
	case models.KindCode:
		language := node.Fields.Language
		if language == "" {
			language = defaultCodeLanguage
		}
		return &notionapi.CodeBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeCode),
			Code: notionapi.Code{
				RichText: richText,
				Caption:  convertRichText(node.Fields.Caption),
				Language: language,
			},
		}, nil
	case models.KindQuote:
		return &notionapi.QuoteBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeQuote),
			Quote:      notionapi.Quote{RichText: richText},
		}, nil
	case models.KindCallout:
		callout := notionapi.Callout{RichText: richText}
		if node.Fields.Emoji != "" {
			emoji := notionapi.Emoji(node.Fields.Emoji)
			callout.Icon = &notionapi.Icon{Type: "emoji", Emoji: &emoji}
		}
		return &notionapi.CalloutBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeCallout),
			Callout:    callout,
		}, nil
	case models.KindDivider:
		return &notionapi.DividerBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeDivider),
			Divider:    notionapi.Divider{},
		}, nil
	case models.KindImage:
		media := externalMedia(node)
		if media == nil {
			return markerBlock("[image unavailable: original not accessible]", richText), nil
		}
		return &notionapi.ImageBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeImage),
			Image: notionapi.Image{
				Type:     "external",
				External: media,
				Caption:  richText,
			},
		}, nil
	case models.KindFile:
		media := externalMedia(node)
		if media == nil {
			return markerBlock("[file unavailable: original not accessible]", richText), nil
		}
		return &notionapi.FileBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeFile),
			File: notionapi.BlockFile{
				Type:     "external",
				External: media,
				Caption:  richText,
			},
		}, nil
	case models.KindEmbed:
		if node.Fields.Media == nil || node.Fields.Media.URL == "" {
			return markerBlock("[embed unavailable: no url]", richText), nil
		}
		return &notionapi.EmbedBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeEmbed),
			Embed: notionapi.Embed{
				URL:     node.Fields.Media.URL,
				Caption: richText,
			},
		}, nil
	case models.KindUnsupported:
		return unsupportedBlock(node, richText), nil
	case "":
		return nil, models.Errorf(models.KindConversion, "convert", "block %s has no kind", node.ID)
	default:
		return unsupportedBlock(node, richText), nil
	}
}

// externalMedia returns the media URL as an external file reference. Files
// hosted by Notion carry expiring URLs and are linked, not re-uploaded.
func externalMedia(node *models.BlockNode) *notionapi.FileObject {
	media := node.Fields.Media
	if media == nil || media.URL == "" {
		return nil
	}
	if media.Hosted {
		logger.Warn("Linking Notion-hosted file as external, the link will expire", map[string]interface{}{
			"block_id": node.ID,
			"kind":     string(node.Kind),
		})
	}
	return &notionapi.FileObject{URL: media.URL}
}

func unsupportedBlock(node *models.BlockNode, richText []notionapi.RichText) notionapi.Block {
	sourceType := node.SourceType
	if sourceType == "" {
		sourceType = string(node.Kind)
	}
	logger.Warn("Unsupported block copied as placeholder", map[string]interface{}{
		"block_id": node.ID,
		"type":     sourceType,
	})
	return markerBlock(UnsupportedMarker(sourceType), richText)
}

// UnsupportedMarker is the visible text that replaces a block kind the
// converter cannot reproduce
func UnsupportedMarker(sourceType string) string {
	return fmt.Sprintf("[unsupported block: %s]", sourceType)
}

// markerBlock is a paragraph that starts with a visible marker followed by
// whatever text the original block had
func markerBlock(marker string, richText []notionapi.RichText) notionapi.Block {
	text := marker
	if len(richText) > 0 {
		text += " "
	}
	runs := append([]notionapi.RichText{textRun(text)}, richText...)
	return paragraphBlock(runs)
}

func paragraphBlock(richText []notionapi.RichText) notionapi.Block {
	return &notionapi.ParagraphBlock{
		BasicBlock: basicBlock(notionapi.BlockTypeParagraph),
		Paragraph:  notionapi.Paragraph{RichText: richText},
	}
}

func basicBlock(blockType notionapi.BlockType) notionapi.BasicBlock {
	return notionapi.BasicBlock{
		Object: "block",
		Type:   blockType,
	}
}

func textRun(content string) notionapi.RichText {
	return notionapi.RichText{
		Type: "text",
		Text: &notionapi.Text{
			Content: content,
		},
	}
}

// convertRichText maps runs one to one. Mentions and equations arrive as
// their plain text and are sent back as text runs.
func convertRichText(runs []models.RichTextRun) []notionapi.RichText {
	if len(runs) == 0 {
		return []notionapi.RichText{}
	}
	rich := make([]notionapi.RichText, 0, len(runs))
	for _, run := range runs {
		rt := textRun(run.Text)
		if run.Link != "" {
			rt.Text.Link = &notionapi.Link{Url: run.Link}
		}
		color := run.Annotations.Color
		if color == "" {
			color = "default"
		}
		rt.Annotations = &notionapi.Annotations{
			Bold:          run.Annotations.Bold,
			Italic:        run.Annotations.Italic,
			Strikethrough: run.Annotations.Strikethrough,
			Underline:     run.Annotations.Underline,
			Code:          run.Annotations.Code,
			Color:         notionapi.Color(color),
		}
		rich = append(rich, rt)
	}
	return rich
}
