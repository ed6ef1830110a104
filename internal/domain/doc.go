// Package domain models annual hydrological series for a terminal lake
// basin and the water-balance arithmetic over them.
//
// # Data Sources
//
// Precipitation comes from NOAA Climate at a Glance annual downloads,
// available at https://www.ncei.noaa.gov/access/monitoring/climate-at-a-glance/:
// a CSV with several metadata lines, then Date/Value/Anomaly columns where
// Date is a YYYY12 code (a 12-month window ending in December). Lake level
// and tributary discharge come from USGS annual-statistics RDB files: tab
// separated, a "#" comment preamble, a column-name row and a column-format
// row ("5s 15s 5s 3n 4s 12n"), with the water year in the fifth field and
// the statistic in the sixth.
//
// Both sources are annual, so a series date is normalized to midnight UTC
// on January 1 of the labeled year. That shared key is what Align joins on;
// no resampling or interpolation happens anywhere in this package.
//
// # Units
//
//	Precipitation:  inches per year
//	Discharge:      cubic feet per second (cfs)
//	Lake level:     feet above the gauge datum
//	Surface area:   square miles
//
// ComputeRate folds these into feet of lake level per year via
// [areaFlowDivisor]; the dry-up extrapolation runs in feet per day.
//
// # Water Balance
//
// The two-epoch policy in Evaluate treats a reference period as having zero
// net change in storage, so its averaged input rate stands in for the
// basin's evaporation-equivalent outflow. The current period's input rate
// minus that baseline is the net rate driving the lake level, and a
// negative net rate extrapolates the most recent observed level forward to
// a dry-up date. A non-negative net rate is the defined NeverDries outcome,
// never a division error. The choice of periods and areas is the caller's
// modeling judgment, carried in Basin rather than hard-coded here.
package domain
