package dv360

// SDF file types and the name of the CSV each produces inside the archive.
var fileNames = map[string]string{
	"FILE_TYPE_INSERTION_ORDER": "InsertionOrders",
	"FILE_TYPE_CAMPAIGN":        "Campaigns",
	"FILE_TYPE_MEDIA_PRODUCT":   "MediaProducts",
	"FILE_TYPE_LINE_ITEM":       "LineItems",
	"FILE_TYPE_AD_GROUP":        "AdGroups",
	"FILE_TYPE_AD":              "AdGroupAds",
}

// Filter types accepted by the SDF download task.
const (
	FilterTypeUnspecified      = "FILTER_TYPE_UNSPECIFIED"
	FilterTypeNone             = "FILTER_TYPE_NONE"
	FilterTypeAdvertiserID     = "FILTER_TYPE_ADVERTISER_ID"
	FilterTypeCampaignID       = "FILTER_TYPE_CAMPAIGN_ID"
	FilterTypeMediaProductID   = "FILTER_TYPE_MEDIA_PRODUCT_ID"
	FilterTypeInsertionOrderID = "FILTER_TYPE_INSERTION_ORDER_ID"
	FilterTypeLineItemID       = "FILTER_TYPE_LINE_ITEM_ID"
)

var filterTypes = map[string]bool{
	FilterTypeUnspecified:      false,
	FilterTypeNone:             false,
	FilterTypeAdvertiserID:     true,
	FilterTypeCampaignID:       true,
	FilterTypeMediaProductID:   true,
	FilterTypeInsertionOrderID: true,
	FilterTypeLineItemID:       true,
}

// FileName returns the base name, without extension, of the CSV generated
// for fileType.
func FileName(fileType string) (string, bool) {
	name, ok := fileNames[fileType]
	if !ok {
		return "", false
	}
	return "SDF-" + name, true
}

// FileTypes returns every supported file type.
func FileTypes() []string {
	return []string{
		"FILE_TYPE_CAMPAIGN",
		"FILE_TYPE_MEDIA_PRODUCT",
		"FILE_TYPE_INSERTION_ORDER",
		"FILE_TYPE_LINE_ITEM",
		"FILE_TYPE_AD_GROUP",
		"FILE_TYPE_AD",
	}
}
