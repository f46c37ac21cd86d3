package sizing

// Range is an inclusive circumference range in centimetres.
type Range struct {
	Min float64
	Max float64
}

// Deviation is zero inside the range and otherwise the distance to the
// nearest bound in units of the range width.
func (r Range) Deviation(v float64) float64 {
	if v >= r.Min && v <= r.Max {
		return 0
	}
	width := r.Max - r.Min
	if width < 1 {
		width = 1
	}
	if v < r.Min {
		return (r.Min - v) / width
	}
	return (v - r.Max) / width
}

// ChartRow is one size. Bottom charts leave Chest zero.
type ChartRow struct {
	Size  string
	Chest Range
	Waist Range
	Hip   Range
}

// Chart lists sizes in ascending order.
type Chart []ChartRow

// Index returns the position of size in the chart, or -1.
func (c Chart) Index(size string) int {
	for i, row := range c {
		if row.Size == size {
			return i
		}
	}
	return -1
}

// ChartGroup selects the men's or women's tables.
type ChartGroup string

const (
	GroupMen   ChartGroup = "men"
	GroupWomen ChartGroup = "women"
)

// GarmentKind selects the top or bottom table within a group.
type GarmentKind string

const (
	KindTop    GarmentKind = "top"
	KindBottom GarmentKind = "bottom"
)

// Charts holds every size table by group and kind.
type Charts map[ChartGroup]map[GarmentKind]Chart

// Lookup returns the chart for group and kind. Unknown groups use the men's tables.
func (c Charts) Lookup(group ChartGroup, kind GarmentKind) Chart {
	if byKind, ok := c[group]; ok {
		return byKind[kind]
	}
	return c[GroupMen][kind]
}

// DefaultCharts returns the built-in size tables.
func DefaultCharts() Charts {
	return Charts{
		GroupMen: {
			KindTop: {
				{Size: "XS", Chest: Range{84, 90}, Waist: Range{70, 76}, Hip: Range{86, 92}},
				{Size: "S", Chest: Range{90, 96}, Waist: Range{76, 82}, Hip: Range{92, 98}},
				{Size: "M", Chest: Range{96, 102}, Waist: Range{82, 88}, Hip: Range{98, 104}},
				{Size: "L", Chest: Range{102, 110}, Waist: Range{88, 96}, Hip: Range{104, 112}},
				{Size: "XL", Chest: Range{110, 118}, Waist: Range{96, 104}, Hip: Range{112, 120}},
				{Size: "XXL", Chest: Range{118, 126}, Waist: Range{104, 112}, Hip: Range{120, 128}},
			},
			KindBottom: {
				{Size: "XS", Waist: Range{68, 74}, Hip: Range{84, 90}},
				{Size: "S", Waist: Range{74, 80}, Hip: Range{90, 96}},
				{Size: "M", Waist: Range{80, 86}, Hip: Range{96, 102}},
				{Size: "L", Waist: Range{86, 94}, Hip: Range{102, 110}},
				{Size: "XL", Waist: Range{94, 102}, Hip: Range{110, 118}},
				{Size: "XXL", Waist: Range{102, 110}, Hip: Range{118, 126}},
			},
		},
		GroupWomen: {
			KindTop: {
				{Size: "XS", Chest: Range{78, 84}, Waist: Range{60, 66}, Hip: Range{84, 90}},
				{Size: "S", Chest: Range{84, 90}, Waist: Range{66, 72}, Hip: Range{90, 96}},
				{Size: "M", Chest: Range{90, 96}, Waist: Range{72, 78}, Hip: Range{96, 102}},
				{Size: "L", Chest: Range{96, 104}, Waist: Range{78, 86}, Hip: Range{102, 110}},
				{Size: "XL", Chest: Range{104, 112}, Waist: Range{86, 94}, Hip: Range{110, 118}},
				{Size: "XXL", Chest: Range{112, 120}, Waist: Range{94, 102}, Hip: Range{118, 126}},
			},
			KindBottom: {
				{Size: "XS", Waist: Range{58, 64}, Hip: Range{84, 90}},
				{Size: "S", Waist: Range{64, 70}, Hip: Range{90, 96}},
				{Size: "M", Waist: Range{70, 76}, Hip: Range{96, 102}},
				{Size: "L", Waist: Range{76, 84}, Hip: Range{102, 110}},
				{Size: "XL", Waist: Range{84, 92}, Hip: Range{110, 118}},
				{Size: "XXL", Waist: Range{92, 100}, Hip: Range{118, 126}},
			},
		},
	}
}
