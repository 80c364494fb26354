package dashboard

// Set3 is the shared qualitative palette every chart draws from.
var Set3 = []string{
	"#8dd3c7", "#ffffb3", "#bebada", "#fb8072",
	"#80b1d3", "#fdb462", "#b3de69", "#fccde5",
	"#d9d9d9", "#bc80bd", "#ccebc5", "#ffed6f",
}

// PaletteColor cycles through Set3.
func PaletteColor(i int) string {
	if i < 0 {
		i = -i
	}
	return Set3[i%len(Set3)]
}
