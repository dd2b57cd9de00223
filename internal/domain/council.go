package domain

// Council is a governing body owning members, committees and scraper configurations.
type Council struct {
	ID           int64
	Name         string
	URL          string
	WikipediaURL string
	errs         ValidationErrors
}

// Validate checks presence rules; name uniqueness is enforced by the store on save.
func (c *Council) Validate() bool {
	c.errs = ValidationErrors{}
	requirePresent(c.errs, "name", c.Name)
	return c.errs.Empty()
}

// Errors returns the errors of the last validation.
func (c *Council) Errors() ValidationErrors {
	if c.errs == nil {
		c.errs = ValidationErrors{}
	}
	return c.errs
}
