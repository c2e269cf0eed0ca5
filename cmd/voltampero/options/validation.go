package options

import (
	"fmt"
	"net/url"
	"strconv"
)

func Validate(o *Options) []error {
	var errs []error
	if err := o.BaseOptions.ValidateAndApply(); err != nil {
		errs = append(errs, err)
	}
	if _, err := strconv.ParseUint(o.Port, 10, 16); err != nil {
		errs = append(errs, fmt.Errorf("invalid port %q", o.Port))
	}
	if len(o.BrokerUrl) > 0 {
		if _, err := url.Parse(o.BrokerUrl); err != nil {
			errs = append(errs, fmt.Errorf("invalid broker url %q: %v", o.BrokerUrl, err))
		}
	}

	return errs
}
