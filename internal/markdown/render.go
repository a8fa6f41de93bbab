package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// Renderer handles markdown rendering with syntax highlighting.
type Renderer struct {
	glamour *glamour.TermRenderer
	width   int
	cache   map[int]string

	incrementalIndex      int
	incrementalLineOffset int
	incrementalCache      string
}

// NewRenderer creates a new markdown renderer.
func NewRenderer(width int) (*Renderer, error) {
	gr, err := glamour.NewTermRenderer(
		glamour.WithStyles(customStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		glamour:          gr,
		width:            width,
		cache:            map[int]string{},
		incrementalIndex: -1,
	}, nil
}

// ToMarkdown renders one message's content. The index is used for
// caching; set finalized once the message can no longer grow. A
// still-streaming message is rendered incrementally: complete lines get
// full markdown, the trailing incomplete line stays plain text so it
// does not flicker between markdown interpretations as tokens arrive.
func (r *Renderer) ToMarkdown(messageIndex int, finalized bool, content string) string {
	if md, ok := r.cache[messageIndex]; ok {
		return md
	}

	if !finalized {
		return r.toMarkdownIncremental(messageIndex, content)
	}

	md := r.render(content)
	r.cache[messageIndex] = md
	return md
}

// Reset drops all cached renders. Call it whenever message indices stop
// identifying the same content, e.g. after a history snapshot replaces
// the transcript.
func (r *Renderer) Reset() {
	r.cache = map[int]string{}
	r.incrementalIndex = -1
	r.incrementalLineOffset = 0
	r.incrementalCache = ""
}

// SetWidth updates the renderer width, recreating internals if needed.
func (r *Renderer) SetWidth(width int) error {
	if r.width == width {
		return nil
	}
	newRenderer, err := NewRenderer(width)
	if err != nil {
		return err
	}
	*r = *newRenderer
	return nil
}

func (r *Renderer) toMarkdownIncremental(messageIndex int, content string) string {
	// Reset the incremental state when the streaming message changes.
	if r.incrementalIndex != messageIndex {
		r.incrementalIndex = messageIndex
		r.incrementalLineOffset = 0
		r.incrementalCache = ""
	}

	if content == "" {
		return r.incrementalCache
	}

	lines := strings.Split(content, "\n")
	numLines := len(lines)

	var completeLinesCount int
	if numLines > 1 {
		completeLinesCount = numLines - 1
	}

	// Re-render all complete lines when a new line is added.
	if completeLinesCount > r.incrementalLineOffset {
		completeContent := strings.Join(lines[:completeLinesCount], "\n")
		if completeContent != "" {
			rendered := r.render(completeContent)
			r.incrementalCache = strings.TrimSuffix(rendered, "\n")
		}
		r.incrementalLineOffset = completeLinesCount
	}

	latestLine := lines[numLines-1]
	if latestLine == "" {
		return r.incrementalCache
	}

	if r.incrementalCache == "" {
		return latestLine
	}
	return r.incrementalCache + "\n" + latestLine
}

func (r *Renderer) render(content string) string {
	rendered, err := r.glamour.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}

// customStyle returns a modified glamour style for cleaner output.
func customStyle() ansi.StyleConfig {
	style := styles.DraculaStyleConfig
	zero := uint(0)
	style.Document.Margin = &zero
	style.CodeBlock.Margin = &zero
	style.CodeBlock.Indent = &zero
	style.CodeBlock.Prefix = ""
	style.CodeBlock.BlockPrefix = ""

	style.Code.Margin = &zero
	style.Code.Indent = &zero
	style.Code.Prefix = ""
	style.Code.Suffix = ""

	style.Paragraph.BlockPrefix = ""
	style.Paragraph.BlockSuffix = ""

	return style
}
