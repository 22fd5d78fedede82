package config

import "time"

// LoadClassLocation 加载课表时区，"Local" 表示跟随主机时区
func LoadClassLocation() (*time.Location, error) {
	if Cfg.ClassTimezone == "" || Cfg.ClassTimezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(Cfg.ClassTimezone)
}
