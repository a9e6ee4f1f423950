// internal/driver/ika/helpers.go
package ika

import "namur-service/pkg/driver"

func pick(on bool, start, stop string) string {
	if on {
		return start
	}
	return stop
}

func equipmentInfo(equipment []driver.EquipmentInfo, name string) driver.EquipmentInfo {
	for _, e := range equipment {
		if e.Name == name {
			return e
		}
	}
	return driver.EquipmentInfo{Name: name}
}
