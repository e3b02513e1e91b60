package network

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the structure of a generated network. Component-level
// counts live with the per-mode graph views, not here: this summary depends
// only on the node and edge sets.
type Stats struct {
	Nodes        int `json:"nodes" bson:"nodes"`
	Edges        int `json:"edges" bson:"edges"`
	RoadEdges    int `json:"road_edges" bson:"road_edges"`
	TransitEdges int `json:"transit_edges" bson:"transit_edges"` // transit-eligible, including upgraded road edges
	TransitOnly  int `json:"transit_only" bson:"transit_only"`
	Stops        int `json:"stops" bson:"stops"`

	DegreeMean   float64 `json:"degree_mean" bson:"degree_mean"`
	DegreeStdDev float64 `json:"degree_stddev" bson:"degree_stddev"`
	DegreeMax    int     `json:"degree_max" bson:"degree_max"`

	LengthMean   float64 `json:"length_mean" bson:"length_mean"`
	LengthStdDev float64 `json:"length_stddev" bson:"length_stddev"`
	LengthMedian float64 `json:"length_median" bson:"length_median"`
	LengthP90    float64 `json:"length_p90" bson:"length_p90"`
	LengthMax    float64 `json:"length_max" bson:"length_max"`
}

// Summarize computes structural statistics for a network.
func Summarize(n *Network) Stats {
	s := Stats{Nodes: len(n.Nodes), Edges: len(n.Edges)}

	degrees := make([]float64, len(n.Nodes))
	lengths := make([]float64, 0, len(n.Edges))

	for _, e := range n.Edges {
		if e.Road {
			s.RoadEdges++
		}
		if e.Transit {
			s.TransitEdges++
			if !e.Road {
				s.TransitOnly++
			}
		}
		degrees[e.U]++
		degrees[e.V]++
		lengths = append(lengths, e.BaseLength)
	}

	for _, node := range n.Nodes {
		if node.Type == TypeStop {
			s.Stops++
		}
	}

	if len(degrees) > 0 {
		s.DegreeMean = stat.Mean(degrees, nil)
		if len(degrees) > 1 {
			s.DegreeStdDev = stat.StdDev(degrees, nil)
		}
		for _, d := range degrees {
			if int(d) > s.DegreeMax {
				s.DegreeMax = int(d)
			}
		}
	}

	if len(lengths) > 0 {
		s.LengthMean = stat.Mean(lengths, nil)
		if len(lengths) > 1 {
			// StdDev needs two samples; a single-edge network stays at 0.
			s.LengthStdDev = stat.StdDev(lengths, nil)
		}
		sort.Float64s(lengths)
		s.LengthMedian = stat.Quantile(0.5, stat.Empirical, lengths, nil)
		s.LengthP90 = stat.Quantile(0.9, stat.Empirical, lengths, nil)
		s.LengthMax = lengths[len(lengths)-1]
	}

	return s
}
