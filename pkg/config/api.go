package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const onlyBytesRegex string = "^[0-9]+$"
const sizeWithUnitRegex string = "^[0-9]+(kb|mb|gb|tb|pb|KB|MB|GB|TB|PB)$"

type APIConfig struct {
	Port                 int      `yaml:"port"`
	PayloadSizeLimit     string   `yaml:"payload_size_limit"`
	Token                string   `yaml:"token"`
	ActiveDecompressions []string `yaml:"active_decompressions"`
}

func (apiConf APIConfig) fillDefaults() APIConfig {
	if apiConf.Port == 0 {
		apiConf.Port = 9010
	}
	return apiConf
}

func (apiConf APIConfig) validate() error {
	err := apiConf.validateSizeLimit()
	if err != nil {
		return err
	}

	for _, decompressionType := range apiConf.ActiveDecompressions {
		if !allowed(allowedValues("decompression"), decompressionType) {
			return fmt.Errorf("api.active_decompressions entries must be one of %v",
				allowedValues("decompression"))
		}
	}

	return nil
}

func (apiConf APIConfig) PayloadSizeLimitInBytes() (int64, error) {
	if apiConf.PayloadSizeLimit == "" {
		return 0, nil
	}

	rex, err := regexp.Compile(onlyBytesRegex)
	if err != nil {
		return 0, err
	}

	if rex.MatchString(apiConf.PayloadSizeLimit) {
		return strconv.ParseInt(apiConf.PayloadSizeLimit, 10, 64)
	}

	rex, err = regexp.Compile(sizeWithUnitRegex)
	if err != nil {
		return 0, err
	}

	matches := rex.FindStringSubmatch(apiConf.PayloadSizeLimit)
	if len(matches) <= 1 {
		return 0, fmt.Errorf("invalid data size unit: %s", apiConf.PayloadSizeLimit)
	}

	unit := matches[1]
	rawSize := strings.Replace(apiConf.PayloadSizeLimit, unit, "", 1)
	size, err := strconv.ParseInt(rawSize, 10, 64)
	if err != nil {
		return 0, err
	}

	exponential := 0
	switch strings.ToLower(unit) {
	case "kb":
		exponential = 1
	case "mb":
		exponential = 2
	case "gb":
		exponential = 3
	case "tb":
		exponential = 4
	case "pb":
		exponential = 5
	}

	//Exponentiation with integers to allow bigger numbers
	multiplier := int64(1)
	for i := 0; i < exponential; i++ {
		multiplier *= 1024
	}
	return size * multiplier, nil
}

func (apiConf APIConfig) validateSizeLimit() error {
	if apiConf.PayloadSizeLimit == "" {
		return nil
	}

	bytesRex, err := regexp.Compile(onlyBytesRegex)
	if err != nil {
		return err
	}

	unitsRex, err := regexp.Compile(sizeWithUnitRegex)
	if err != nil {
		return err
	}

	if !bytesRex.MatchString(apiConf.PayloadSizeLimit) &&
		!unitsRex.MatchString(apiConf.PayloadSizeLimit) {
		return errors.New("invalid format on api payload size limit")
	}

	return nil
}
