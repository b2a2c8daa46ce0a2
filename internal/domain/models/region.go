package models

// Region is a NEM market-zone code.
type Region string

const (
	RegionNSW Region = "NSW1"
	RegionQLD Region = "QLD1"
	RegionVIC Region = "VIC1"
	RegionSA  Region = "SA1"
	RegionTAS Region = "TAS1"
	// RegionNEM is the whole-of-market aggregate published in emissions data only.
	RegionNEM Region = "NEM"
)

// PriceRegions are the dispatch regions that carry a price.
func PriceRegions() []Region {
	return []Region{RegionNSW, RegionQLD, RegionVIC, RegionSA, RegionTAS}
}

// EmissionsRegions are the regions published in the IBEI emissions files.
func EmissionsRegions() []Region {
	return append(PriceRegions(), RegionNEM)
}

// RegionSet builds a lookup set from region codes.
func RegionSet(codes []string) map[Region]struct{} {
	out := make(map[Region]struct{}, len(codes))
	for _, c := range codes {
		out[Region(c)] = struct{}{}
	}
	return out
}

func (r Region) String() string { return string(r) }
