package facebook

// Object types, ordered from the top of the hierarchy down.
const (
	ObjectAccount  = "account"
	ObjectCampaign = "campaign"
	ObjectAdSet    = "adset"
	ObjectAd       = "ad"
	ObjectCreative = "creative"
)

var hierarchy = []string{ObjectAccount, ObjectCampaign, ObjectAdSet, ObjectAd, ObjectCreative}

// edges are the node edges listing objects of a level.
var edges = map[string]string{
	ObjectCampaign: "campaigns",
	ObjectAdSet:    "adsets",
	ObjectAd:       "ads",
	ObjectCreative: "adcreatives",
}

// depth returns the position of an object type in the hierarchy, or -1.
func depth(objectType string) int {
	for i, t := range hierarchy {
		if t == objectType {
			return i
		}
	}
	return -1
}

var breakdownDimensions = toSet(
	"ad_format_asset",
	"age",
	"app_id",
	"body_asset",
	"call_to_action_asset",
	"country",
	"description_asset",
	"device_platform",
	"dma",
	"frequency_value",
	"gender",
	"hourly_stats_aggregated_by_advertiser_time_zone",
	"hourly_stats_aggregated_by_audience_time_zone",
	"image_asset",
	"impression_device",
	"link_url_asset",
	"place_page_id",
	"platform_position",
	"product_id",
	"publisher_platform",
	"region",
	"skan_conversion_id",
	"title_asset",
	"video_asset",
)

var actionBreakdownDimensions = toSet(
	"action_canvas_component_name",
	"action_carousel_card_id",
	"action_carousel_card_name",
	"action_destination",
	"action_device",
	"action_reaction",
	"action_target_id",
	"action_type",
	"action_video_sound",
	"action_video_type",
	"conversion_destination",
	"standard_event_content_type",
)

func toSet(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
