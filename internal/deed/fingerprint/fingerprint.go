// Package fingerprint computes the tamper-evidence digest of a deed.
//
// The digest covers only the substantive business fields, in a fixed order,
// so that status changes, timestamps and storage metadata never disturb it.
// Exact string content matters: no trimming, no case folding.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"deedledger/internal/deed"
)

// Compute returns the lowercase hex SHA-256 of the deed's nine business
// fields joined with "-". Field order is part of the contract:
// landTitleNumber, deedNumber, ownerName, ownerNIC, landLocation, province,
// district, landArea, surveyRef.
func Compute(d deed.Deed) string {
	payload := strings.Join([]string{
		d.LandTitleNumber,
		d.DeedNumber,
		d.OwnerName,
		d.OwnerNIC,
		d.LandLocation,
		d.Province,
		d.District,
		d.LandArea,
		d.SurveyRef,
	}, "-")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
