package util

import (
	"encoding/json"
	"io"
	"io/ioutil"

	"github.com/pkg/errors"
)

// ReadJSONFromBody returns parsed json value, empty body keeps the value
func ReadJSONFromBody(from io.ReadCloser, value interface{}) error {
	defer from.Close()

	data, err := ioutil.ReadAll(from)
	if err != nil {
		return errors.Wrap(err, "read body")
	}

	if len(data) > 0 {
		err = json.Unmarshal(data, value)
		if err != nil {
			return errors.Wrap(err, "parse body")
		}
	}

	return nil
}
