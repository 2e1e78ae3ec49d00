package facebook

import (
	"strconv"

	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/ajitpratap0/adreader/pkg/fieldpath"
)

// validate checks option combinations against the parsed fields. It never
// contacts the API.
func validate(o config.FacebookConfig, exprs []fieldpath.Expression) error {
	if o.AccessToken == "" {
		return configErr("access token is required")
	}
	if len(o.ObjectIDs) == 0 {
		return configErr("at least one object id is required")
	}
	if len(exprs) == 0 {
		return configErr("at least one field is required")
	}

	objectDepth := depth(o.ObjectType)
	if objectDepth < 0 {
		return configErr("unknown object type %q", o.ObjectType)
	}
	levelDepth := depth(o.Level)
	if levelDepth < 0 {
		return configErr("unknown level %q", o.Level)
	}
	if levelDepth < objectDepth {
		return configErr("level %s is above object type %s", o.Level, o.ObjectType)
	}

	breakdowns := toSet(o.Breakdowns...)
	actionBreakdowns := toSet(o.ActionBreakdowns...)
	for _, b := range o.Breakdowns {
		if !breakdownDimensions[b] {
			return configErr("unknown breakdown %q", b)
		}
	}
	for _, b := range o.ActionBreakdowns {
		if !actionBreakdownDimensions[b] {
			return configErr("unknown action breakdown %q", b)
		}
	}

	if o.AdInsights {
		if o.ObjectType == ObjectCreative || o.Level == ObjectCreative {
			return configErr("ad insights are not available for creatives")
		}
		if err := validateTimeIncrement(o.TimeIncrement); err != nil {
			return err
		}
		if o.Async {
			if err := o.PollInterval.Validate(); err != nil {
				return configErr("poll interval: %v", err)
			}
		}
	} else {
		if len(o.Breakdowns) > 0 || len(o.ActionBreakdowns) > 0 {
			return configErr("breakdowns and action breakdowns require ad insights")
		}
		if o.TimeIncrement != "" {
			return configErr("time increment requires ad insights")
		}
		if o.Async {
			return configErr("async requires ad insights")
		}
	}

	for _, e := range exprs {
		if breakdownDimensions[e.Base] && !breakdowns[e.Base] {
			return configErr("field %s is a breakdown and must be declared in breakdowns", e.Raw)
		}
		for _, f := range e.Filters() {
			if !actionBreakdowns[f.Key] {
				return configErr("field %s filters on %s, which must be declared in action breakdowns", e.Raw, f.Key)
			}
		}
	}

	dateOptions := 0
	if o.StartDate != "" || o.EndDate != "" {
		if o.StartDate == "" || o.EndDate == "" {
			return configErr("start date and end date must be set together")
		}
		dateOptions++
	}
	if o.DateRange != "" {
		dateOptions++
	}
	if o.DatePreset != "" {
		dateOptions++
	}
	if dateOptions > 1 {
		return configErr("use only one of start/end date, date range and date preset")
	}

	if o.APIVersion == "" {
		return configErr("api version is required")
	}
	if o.PageSize <= 0 {
		return configErr("page size must be positive, got %d", o.PageSize)
	}
	return nil
}

func validateTimeIncrement(v string) error {
	switch v {
	case "", "monthly", "all_days":
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 90 {
		return configErr("time increment must be monthly, all_days or 1-90, got %q", v)
	}
	return nil
}

func configErr(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrorTypeConfig, "facebook: "+format, args...)
}
