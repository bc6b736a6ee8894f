package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/dgallion1/bookplay/internal/doctree"
	"golang.org/x/net/html"
)

// EPUBParser handles EPUB books. Each XHTML document in the spine becomes
// one section, titled by its first heading.
type EPUBParser struct{}

type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubPackage struct {
	Title    string `xml:"metadata>title"`
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

func (p *EPUBParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read epub: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open epub zip: %w", err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	var container epubContainer
	if err := decodeZipXML(files, "META-INF/container.xml", &container); err != nil {
		return nil, err
	}
	if len(container.Rootfiles) == 0 || container.Rootfiles[0].FullPath == "" {
		return nil, fmt.Errorf("epub: container.xml lists no rootfile")
	}
	opfPath := container.Rootfiles[0].FullPath

	var pkg epubPackage
	if err := decodeZipXML(files, opfPath, &pkg); err != nil {
		return nil, err
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	if t := strings.TrimSpace(pkg.Title); t != "" {
		tree.Title = t
	}

	hrefs := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		if strings.Contains(item.MediaType, "html") {
			hrefs[item.ID] = item.Href
		}
	}

	base := path.Dir(opfPath)
	for _, ref := range pkg.Spine {
		href, ok := hrefs[ref.IDRef]
		if !ok {
			continue
		}
		if unescaped, err := url.PathUnescape(href); err == nil {
			href = unescaped
		}
		f, ok := files[path.Join(base, href)]
		if !ok {
			continue
		}
		node, err := epubSection(f)
		if err != nil {
			return nil, err
		}
		if node != nil {
			tree.Children = append(tree.Children, node)
		}
	}

	return tree, nil
}

func decodeZipXML(files map[string]*zip.File, name string, v any) error {
	f, ok := files[name]
	if !ok {
		return fmt.Errorf("epub: missing %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("epub: open %s: %w", name, err)
	}
	defer rc.Close()
	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("epub: decode %s: %w", name, err)
	}
	return nil
}

// epubSection extracts one spine document. Documents with no text (covers,
// image pages) yield nil.
func epubSection(f *zip.File) (*doctree.DocNode, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("epub: open %s: %w", f.Name, err)
	}
	defer rc.Close()

	doc, err := html.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("epub: parse %s: %w", f.Name, err)
	}

	var (
		title      string
		paragraphs []string
	)
	onPara := func(text string) {
		if text = collapseSpace(text); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	onHeading := func(_ int, text string) {
		if title == "" {
			title = text
			return
		}
		paragraphs = append(paragraphs, text)
	}

	body := findBody(doc)
	if body == nil {
		body = doc
	}
	walkHTMLBlocks(body, onHeading, onPara)

	if len(paragraphs) == 0 {
		return nil, nil
	}
	return &doctree.DocNode{
		Title: title,
		Text:  strings.Join(paragraphs, "\n\n"),
	}, nil
}
