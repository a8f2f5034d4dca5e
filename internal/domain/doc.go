// Package domain models BC emergency alert areas and the sites checked
// against them.
//
// # Alert Feed
//
// Evacuation orders and alerts come from the BC Emergency Management ArcGIS
// FeatureServer as a GeoJSON FeatureCollection (f=pgeojson). Attribute names
// are upper-case ArcGIS columns:
//
//	EVENT_NAME, EVENT_TYPE, ORDER_ALERT_STATUS, ISSUING_AGENCY,
//	ORDER_ALERT_NAME, PREOC_CODE, EVENT_NUMBER, DATE_MODIFIED,
//	FEATURE_AREA_SQM, FEATURE_LENGTH_M, OBJECTID
//
// DATE_MODIFIED is epoch milliseconds. OBJECTID and EVENT_NUMBER arrive as
// either strings or numbers; see [FlexString].
//
// Geometry is Polygon or MultiPolygon in WGS-84, longitude first. Each ring
// of a Polygon and the exterior ring of each MultiPolygon member becomes one
// [AlertPart]. Holes are not subtracted: a site inside a hole of a polygon
// still matches the outer ring. Rings with fewer than three distinct vertices
// are dropped, and rings missing their closing vertex are closed.
//
// EVENT_TYPE values outside Fire, Flood and Landslide become Other.
//
// # Site Roster
//
// Sites come from a tabular roster (licensed child care facilities by
// default) with columns:
//
//	facility_name -> SiteName
//	latitude      -> Lat
//	longitude     -> Lon
//	total_spaces  -> MaxCapacity
//	city          -> City
//	phone         -> Phone
//
// Rows with a missing, non-numeric or out-of-range coordinate are dropped.
// Unparseable capacity becomes 0.
//
// # Matching
//
// A site matches a part when the part's ring contains the site, boundary
// included (within about 1e-9 degrees). Matching is a left outer join: a site
// inside k parts yields k [MatchRecord] values, and a site inside none yields
// one record with a nil Alert.
package domain
