package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"docugen/api/internal/model"
)

// The slide-deck path assembles the OOXML package directly: a fixed master
// with a colored top band and watermark, one title slide, then one content
// slide per section. Geometry is in EMUs on a 16x9 canvas.
const (
	slideWidthEMU  = 12192000
	slideHeightEMU = 6858000
	bandHeightEMU  = 685800 // 0.75in

	bandColor      = "0052CC"
	headingColor   = "FFFFFF"
	bodyColor      = "363636"
	mutedColor     = "808080"
	watermarkText  = "DocuGen AI Generated"
	masterSlideID  = 2147483648
	masterLayoutID = 2147483649
)

func buildPptx(project model.Project) ([]byte, error) {
	slides := []string{titleSlideXML(project)}
	for _, section := range project.Sections {
		slides = append(slides, contentSlideXML(section))
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := map[string]string{
		"[Content_Types].xml":                        contentTypesXML(len(slides)),
		"_rels/.rels":                                rootRelsXML,
		"ppt/presentation.xml":                       presentationXML(len(slides)),
		"ppt/_rels/presentation.xml.rels":            presentationRelsXML(len(slides)),
		"ppt/slideMasters/slideMaster1.xml":          slideMasterXML(),
		"ppt/slideMasters/_rels/slideMaster1.xml.rels": masterRelsXML,
		"ppt/slideLayouts/slideLayout1.xml":          slideLayoutXML,
		"ppt/slideLayouts/_rels/slideLayout1.xml.rels": layoutRelsXML,
		"ppt/theme/theme1.xml":                       themeXML,
	}
	for i, slide := range slides {
		n := i + 1
		parts[fmt.Sprintf("ppt/slides/slide%d.xml", n)] = slide
		parts[fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n)] = slideRelsXML
	}

	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create part %s: %w", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			return nil, fmt.Errorf("write part %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize package: %w", err)
	}
	return buf.Bytes(), nil
}

func escapeXML(s string) string {
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	).Replace(s)
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

func contentTypesXML(slideCount int) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	sb.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	sb.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&sb, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
	}
	sb.WriteString(`</Types>`)
	return sb.String()
}

const rootRelsXML = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>` +
	`</Relationships>`

func presentationXML(slideCount int) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`)
	fmt.Fprintf(&sb, `<p:sldMasterIdLst><p:sldMasterId id="%d" r:id="rId1"/></p:sldMasterIdLst>`, masterSlideID)
	sb.WriteString(`<p:sldIdLst>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&sb, `<p:sldId id="%d" r:id="rId%d"/>`, 255+i, 1+i)
	}
	sb.WriteString(`</p:sldIdLst>`)
	fmt.Fprintf(&sb, `<p:sldSz cx="%d" cy="%d"/><p:notesSz cx="6858000" cy="9144000"/>`, slideWidthEMU, slideHeightEMU)
	sb.WriteString(`</p:presentation>`)
	return sb.String()
}

func presentationRelsXML(slideCount int) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	sb.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&sb, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, 1+i, i)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

// slideMasterXML paints the fixed look every slide inherits: white
// background, the colored band across the top, and the watermark aligned
// right inside the band.
func slideMasterXML() string {
	band := fmt.Sprintf(
		`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Top Band"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`+
			`<p:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
			`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom>`+
			`<a:solidFill><a:srgbClr val="%s"/></a:solidFill></p:spPr>`+
			`<p:txBody><a:bodyPr/><a:lstStyle/><a:p/></p:txBody></p:sp>`,
		slideWidthEMU, bandHeightEMU, bandColor,
	)
	watermark := fmt.Sprintf(
		`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Watermark"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`+
			`<p:spPr><a:xfrm><a:off x="457200" y="182880"/><a:ext cx="10972800" cy="365760"/></a:xfrm>`+
			`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`+
			`<p:txBody><a:bodyPr wrap="square"/><a:lstStyle/>`+
			`<a:p><a:pPr algn="r"/><a:r><a:rPr lang="en-US" sz="1400"><a:solidFill><a:srgbClr val="FFFFFF"/></a:solidFill></a:rPr><a:t>%s</a:t></a:r></a:p>`+
			`</p:txBody></p:sp>`,
		escapeXML(watermarkText),
	)
	return xmlHeader +
		`<p:sldMaster xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
		`<p:cSld><p:bg><p:bgPr><a:solidFill><a:srgbClr val="FFFFFF"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>` +
		`<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>` +
		band + watermark +
		`</p:spTree></p:cSld>` +
		`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
		fmt.Sprintf(`<p:sldLayoutIdLst><p:sldLayoutId id="%d" r:id="rId1"/></p:sldLayoutIdLst>`, masterLayoutID) +
		`</p:sldMaster>`
}

const masterRelsXML = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/>` +
	`</Relationships>`

const slideLayoutXML = xmlHeader +
	`<p:sldLayout xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" type="blank">` +
	`<p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>` +
	`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

const layoutRelsXML = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/>` +
	`</Relationships>`

const slideRelsXML = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
	`</Relationships>`

const themeXML = xmlHeader +
	`<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="DocuGen">` +
	`<a:themeElements>` +
	`<a:clrScheme name="DocuGen"><a:dk1><a:srgbClr val="000000"/></a:dk1><a:lt1><a:srgbClr val="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="363636"/></a:dk2><a:lt2><a:srgbClr val="F5F5F5"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="0052CC"/></a:accent1><a:accent2><a:srgbClr val="808080"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="A0A0A0"/></a:accent3><a:accent4><a:srgbClr val="C0C0C0"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="D0D0D0"/></a:accent5><a:accent6><a:srgbClr val="E0E0E0"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="0052CC"/></a:hlink><a:folHlink><a:srgbClr val="800080"/></a:folHlink></a:clrScheme>` +
	`<a:fontScheme name="DocuGen"><a:majorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont></a:fontScheme>` +
	`<a:fmtScheme name="DocuGen"><a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst>` +
	`<a:lnStyleLst><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst>` +
	`<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>` +
	`<a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst>` +
	`</a:fmtScheme></a:themeElements></a:theme>`

// textBox renders one positioned text box holding pre-built paragraph XML.
func textBox(id int, name string, x, y, cx, cy int, paragraphs string) string {
	return fmt.Sprintf(
		`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`+
			`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
			`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`+
			`<p:txBody><a:bodyPr wrap="square"/><a:lstStyle/>%s</p:txBody></p:sp>`,
		id, escapeXML(name), x, y, cx, cy, paragraphs,
	)
}

func textParagraph(text, color string, sizeHundredths int, bold bool, align string) string {
	boldAttr := ""
	if bold {
		boldAttr = ` b="1"`
	}
	alignAttr := ""
	if align != "" {
		alignAttr = fmt.Sprintf(`<a:pPr algn="%s"/>`, align)
	}
	return fmt.Sprintf(
		`<a:p>%s<a:r><a:rPr lang="en-US" sz="%d"%s><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:rPr><a:t>%s</a:t></a:r></a:p>`,
		alignAttr, sizeHundredths, boldAttr, color, escapeXML(text),
	)
}

func bulletParagraph(text string) string {
	return fmt.Sprintf(
		`<a:p><a:pPr marL="342900" indent="-342900"><a:buChar char="•"/></a:pPr>`+
			`<a:r><a:rPr lang="en-US" sz="1800"><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:rPr><a:t>%s</a:t></a:r></a:p>`,
		bodyColor, escapeXML(text),
	)
}

func slideShell(shapes string) string {
	return xmlHeader +
		`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
		`<p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>` +
		shapes +
		`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`
}

func titleSlideXML(project model.Project) string {
	titleBox := textBox(2, "Title", 914400, 1828800, 9753600, 914400,
		textParagraph(project.Title, bodyColor, 3600, true, "ctr"))
	topicBox := textBox(3, "Topic", 914400, 2926080, 9753600, 914400,
		textParagraph(project.MainTopic, mutedColor, 1800, false, "ctr"))
	return slideShell(titleBox + topicBox)
}

func contentSlideXML(section model.Section) string {
	headingBox := textBox(2, "Heading", 457200, 182880, 10363200, 457200,
		textParagraph(section.Title, headingColor, 2400, true, ""))

	var bullets strings.Builder
	for _, line := range bulletLines(section.Content) {
		bullets.WriteString(bulletParagraph(line))
	}
	if bullets.Len() == 0 {
		bullets.WriteString(`<a:p/>`)
	}
	bodyBox := textBox(3, "Body", 457200, 914400, 10972800, 5143500, bullets.String())

	return slideShell(headingBox + bodyBox)
}
