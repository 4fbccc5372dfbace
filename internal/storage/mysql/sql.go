package mysql

const upsertRoomTypeSQL = `
INSERT INTO room_types
  (id, name, base_rate, default_allotment)
VALUES
  (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name              = VALUES(name),
  base_rate         = VALUES(base_rate),
  default_allotment = VALUES(default_allotment),
  updated_at        = CURRENT_TIMESTAMP
`

const getRoomTypeSQL = `
SELECT id, name, base_rate, default_allotment
FROM room_types
WHERE id = ?
`

const listRoomTypesSQL = `
SELECT id, name, base_rate, default_allotment
FROM room_types
ORDER BY id
`

// The whole record is replaced; there is no partial column update.
const upsertOverrideSQL = `
INSERT INTO inventory_overrides
  (room_type_id, ` + "`date`" + `, allotment, rate, is_closed)
VALUES
  (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  allotment  = VALUES(allotment),
  rate       = VALUES(rate),
  is_closed  = VALUES(is_closed),
  updated_at = CURRENT_TIMESTAMP
`

const getOverrideSQL = "SELECT allotment, rate, is_closed FROM inventory_overrides WHERE room_type_id = ? AND `date` = ?"

const getOverridesSQL = "SELECT `date`, allotment, rate, is_closed FROM inventory_overrides\n" +
	"WHERE room_type_id = ? AND `date` BETWEEN ? AND ?\n" +
	"ORDER BY `date`"
