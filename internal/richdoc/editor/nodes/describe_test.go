package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	info := Describe(MustSchema())

	require.NotEmpty(t, info.Nodes)
	assert.Equal(t, NameDoc, info.Nodes[0].Name)

	var heading *TypeInfo
	for i := range info.Nodes {
		if info.Nodes[i].Name == NameHeading {
			heading = &info.Nodes[i]
		}
	}
	require.NotNil(t, heading)
	assert.Equal(t, "heading", heading.Token)
	assert.Equal(t, []AttrInfo{
		{Name: "dir", Extension: true},
		{Name: "level", Default: 1},
		{Name: "textAlign", Extension: true},
	}, heading.Attrs)

	names := make([]string, 0, len(info.Marks))
	for _, m := range info.Marks {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "link")
	assert.Contains(t, names, "strong")
}
