package svn

import (
	"fmt"
	"strings"
)

const testRoot = "svn://svn.example.org/repo"

func infoXML(root, uuid string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<info>
<entry kind="dir" path="trunk" revision="12">
<url>%s/proj</url>
<repository>
<root>%s</root>
<uuid>%s</uuid>
</repository>
</entry>
</info>
`, root, root, uuid))
}

func entryXML(rev int, author, msg string, paths ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<logentry revision=\"%d\">\n", rev)
	fmt.Fprintf(&b, "<author>%s</author>\n", author)
	fmt.Fprintf(&b, "<date>2024-03-%02dT10:20:30.123456Z</date>\n", rev%28+1)
	b.WriteString("<paths>\n")
	for _, p := range paths {
		fmt.Fprintf(&b, "<path kind=\"file\" action=\"M\">%s</path>\n", p)
	}
	b.WriteString("</paths>\n")
	fmt.Fprintf(&b, "<msg>%s</msg>\n", msg)
	b.WriteString("</logentry>\n")
	return b.String()
}

func logXML(entries ...string) []byte {
	return []byte("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<log>\n" + strings.Join(entries, "") + "</log>\n")
}
