package user

const (
	MsgFetchFailed       = "Gagal mengambil data user"
	MsgRequiredFields    = "Semua field wajib diisi"
	MsgCreated           = "User berhasil ditambahkan"
	MsgCreateFailed      = "Gagal menambahkan user"
	MsgUpdated           = "User berhasil diupdate"
	MsgUpdateFailed      = "Gagal mengupdate user"
	MsgDeactivated       = "User berhasil dinonaktifkan"
	MsgDeactivateFailed  = "Gagal menghapus user"
	MsgResetToDefault    = `Password berhasil direset ke "password123"`
	MsgResetFailed       = "Gagal reset password"
	MsgPasswordSet       = "Password berhasil direset"
	MsgPasswordRequired  = "Password baru harus diisi"
	MsgPasswordTooShort  = "Password minimal 6 karakter"
	MsgStatusFailed      = "Gagal mengubah status user"
	MsgActivityFailed    = "Gagal mengambil log aktivitas"
	MsgInvalidUserID     = "ID user tidak valid"
	MsgInvalidBody       = "Format permintaan tidak valid"
	msgStatusActivated   = "User berhasil diaktifkan"
	msgStatusDeactivated = "User berhasil dinonaktifkan"
)

// MinPasswordLength is counted in characters.
const MinPasswordLength = 6

func StatusChangedMessage(isActive bool) string {
	if isActive {
		return msgStatusActivated
	}
	return msgStatusDeactivated
}
