// Package intelligence implements the Market Intelligence enrichment stage:
// three indexed statistical tables loaded at startup, multi-tier fallback
// lookups over them, and the derived scores computed per call. The
// multi-tier fallback and in-memory index shape is grounded on the
// teacher's regime detector (threshold-group struct plus a pure classify
// function) generalized from a single cached classification to three
// independently indexed tables.
//
// Table loading uses the standard library's encoding/csv rather than a
// third-party parser: these are flat, header-described numeric tables with
// no nesting, and the corpus's YAML dependency (gopkg.in/yaml.v3) is
// reserved for the surrounding Config, which names the table file paths.
package intelligence

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// BidderProfile is one row of the bidder-history table.
type BidderProfile struct {
	ID            string
	Aggression    float64
	ReactionTimeS float64
	WinRate       int // wins observed
	Losses        int
}

// TotalRounds is wins+losses for this bidder profile.
func (b BidderProfile) TotalRounds() int { return b.WinRate + b.Losses }

// WinRateFraction is the observed win fraction, or 0 if no rounds recorded.
func (b BidderProfile) WinRateFraction() float64 {
	total := b.TotalRounds()
	if total == 0 {
		return 0
	}
	return float64(b.WinRate) / float64(total)
}

// DomainStat is one row of the domain-price-history table.
type DomainStat struct {
	Name          string
	TLD           string
	AvgFinalPrice float64
	P25, P50, P75, P90 float64
	Volatility    float64
	SampleSize    int
}

// ArchetypeStat is one row of the platform-archetype table.
type ArchetypeStat struct {
	Platform      string
	AvgLateBidRatio float64
	AvgBidJump    float64
	AvgDurationS  float64
}

// Tables is the fully loaded, indexed set of statistical tables Market
// Intelligence looks up against.
type Tables struct {
	Bidders       []BidderProfile
	biddersByID   map[string]BidderProfile
	Domains       []DomainStat
	domainsByName map[string]DomainStat
	Archetypes    map[string]ArchetypeStat // keyed by platform
}

// LoadTables reads the three CSV tables from the given file paths and
// builds their indexes.
func LoadTables(bidderPath, domainPath, archetypePath string) (*Tables, error) {
	bidders, err := loadBidders(bidderPath)
	if err != nil {
		return nil, fmt.Errorf("intelligence: load bidders: %w", err)
	}
	domains, err := loadDomains(domainPath)
	if err != nil {
		return nil, fmt.Errorf("intelligence: load domains: %w", err)
	}
	archetypes, err := loadArchetypes(archetypePath)
	if err != nil {
		return nil, fmt.Errorf("intelligence: load archetypes: %w", err)
	}

	t := &Tables{
		Bidders:       bidders,
		biddersByID:   make(map[string]BidderProfile, len(bidders)),
		Domains:       domains,
		domainsByName: make(map[string]DomainStat, len(domains)),
		Archetypes:    archetypes,
	}
	for _, b := range bidders {
		t.biddersByID[b.ID] = b
	}
	for _, d := range domains {
		t.domainsByName[d.Name] = d
	}
	return t, nil
}

func loadBidders(path string) ([]BidderProfile, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	out := make([]BidderProfile, 0, len(rows))
	for _, row := range rows {
		wins, _ := strconv.Atoi(row["wins"])
		losses, _ := strconv.Atoi(row["losses"])
		aggression, _ := strconv.ParseFloat(row["aggression"], 64)
		reaction, _ := strconv.ParseFloat(row["reaction_time_s"], 64)
		out = append(out, BidderProfile{
			ID:            row["id"],
			Aggression:    aggression,
			ReactionTimeS: reaction,
			WinRate:       wins,
			Losses:        losses,
		})
	}
	return out, nil
}

func loadDomains(path string) ([]DomainStat, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	out := make([]DomainStat, 0, len(rows))
	for _, row := range rows {
		avg, _ := strconv.ParseFloat(row["avg_final_price"], 64)
		p25, _ := strconv.ParseFloat(row["p25"], 64)
		p50, _ := strconv.ParseFloat(row["p50"], 64)
		p75, _ := strconv.ParseFloat(row["p75"], 64)
		p90, _ := strconv.ParseFloat(row["p90"], 64)
		vol, _ := strconv.ParseFloat(row["volatility"], 64)
		n, _ := strconv.Atoi(row["sample_size"])
		out = append(out, DomainStat{
			Name:          row["name"],
			TLD:           row["tld"],
			AvgFinalPrice: avg,
			P25:           p25,
			P50:           p50,
			P75:           p75,
			P90:           p90,
			Volatility:    vol,
			SampleSize:    n,
		})
	}
	return out, nil
}

func loadArchetypes(path string) (map[string]ArchetypeStat, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]ArchetypeStat, len(rows))
	for _, row := range rows {
		jump, _ := strconv.ParseFloat(row["avg_bid_jump"], 64)
		late, _ := strconv.ParseFloat(row["avg_late_bid_ratio"], 64)
		dur, _ := strconv.ParseFloat(row["avg_duration_s"], 64)
		a := ArchetypeStat{
			Platform:        row["platform"],
			AvgLateBidRatio: late,
			AvgBidJump:      jump,
			AvgDurationS:    dur,
		}
		out[a.Platform] = a
	}
	return out, nil
}

// readCSV reads a header-described CSV file into a slice of column->value
// maps, one per data row.
func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rows []map[string]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
