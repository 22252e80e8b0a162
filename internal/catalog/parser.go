// Package catalog loads price-line records into the vector store and owns the
// embed-and-upsert sync contract for all catalog mutations.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/alexnetwork99/quotation-automation/internal/models"
)

// Price files are plain text: a supplier header line followed by one record
// per line. Both ASCII and CJK field labels are accepted, e.g.:
//
//	supplier: Hongda Hardware
//	name: hex bolt, spec: M8x30, unit: piece, price: 0.12
//
//	供应商：宏达五金
//	品名：六角螺栓，规格：M8×30，单位：个，单价：0.12元
var (
	supplierRe = regexp.MustCompile(`^(?i:supplier|供应商)[:：]\s*(.+)$`)
	recordRe   = regexp.MustCompile(`^(?i:name|品名)[:：]\s*(.+?)\s*[,，]\s*(?i:spec|规格)[:：]\s*(.+?)\s*[,，]\s*(?i:unit|单位)[:：]\s*(.+?)\s*[,，]\s*(?i:price|单价)[:：]\s*([0-9]+(?:\.[0-9]+)?)\s*(?:元)?\s*$`)
)

// ParseRecords reads price records from r. Lines that match neither the
// supplier header nor the record pattern are ignored, matching the tolerant
// behavior expected of operator-maintained files. Records seen before any
// supplier header get an empty supplier.
func ParseRecords(r io.Reader) ([]models.PriceRecord, error) {
	var records []models.PriceRecord
	supplier := ""

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if m := supplierRe.FindStringSubmatch(line); m != nil {
			supplier = strings.TrimSpace(m[1])
			continue
		}
		m := recordRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		price, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			continue
		}
		records = append(records, models.PriceRecord{
			Supplier: supplier,
			Name:     strings.TrimSpace(m[1]),
			Spec:     strings.TrimSpace(m[2]),
			Unit:     strings.TrimSpace(m[3]),
			Price:    price,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read price records: %w", err)
	}
	return records, nil
}

// ParseFile reads price records from the file at path.
func ParseFile(path string) ([]models.PriceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer f.Close()
	return ParseRecords(f)
}
