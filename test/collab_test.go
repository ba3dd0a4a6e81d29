package test

import (
	"fmt"
	"net/http"
	"testing"
)

// createList membuat list bersama dan mengembalikan ID-nya.
func createList(t *testing.T, token, name string) int {
	t.Helper()
	app := CreateTestApp()
	status, result := doJSON(t, app, "POST", "/api/v1/collab/lists", token, map[string]string{
		"name": name,
	})
	if status != http.StatusCreated {
		t.Fatalf("Expected 201 for create list, got %d (%v)", status, result["message"])
	}
	id, ok := result["id"].(float64)
	if !ok {
		t.Fatalf("Expected list id in response")
	}
	return int(id)
}

// TestCollabScenario: skenario lengkap owner/member dari awal sampai pencabutan akses
func TestCollabScenario(t *testing.T) {
	app := CreateTestApp()
	userA := uniqueName("alice")
	userB := uniqueName("bob")
	tokenA := registerAndLogin(t, app, userA)
	tokenB := registerAndLogin(t, app, userB)

	// A membuat list dan menambahkan B sebagai member
	listID := createList(t, tokenA, "Groceries")

	status, _ := doJSON(t, app, "POST", fmt.Sprintf("/api/v1/collab/lists/%d/members", listID), tokenA, map[string]string{
		"username": userB,
	})
	if status != http.StatusOK {
		t.Fatalf("Expected 200 for add member, got %d", status)
	}

	// B (member) menambahkan task
	status, result := doJSON(t, app, "POST", fmt.Sprintf("/api/v1/collab/lists/%d/tasks", listID), tokenB, map[string]string{
		"title":    "Milk",
		"due_date": "2025-06-01",
		"priority": "High",
	})
	if status != http.StatusCreated {
		t.Fatalf("Expected 201 for member add task, got %d (%v)", status, result["message"])
	}

	// kedua user melihat task yang sama
	status, result = doJSON(t, app, "GET", fmt.Sprintf("/api/v1/collab/lists/%d/tasks", listID), tokenA, nil)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 for owner list tasks, got %d", status)
	}
	tasks := result["data"].([]interface{})
	if len(tasks) != 1 || tasks[0].(map[string]interface{})["title"] != "Milk" {
		t.Fatalf("Expected task 'Milk' visible to owner, got %v", tasks)
	}

	// A (owner) mencabut B
	status, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/v1/collab/lists/%d/members/%s", listID, userB), tokenA, nil)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 for remove member, got %d", status)
	}

	// B kehilangan akses: add task berikutnya ditolak
	status, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/collab/lists/%d/tasks", listID), tokenB, map[string]string{
		"title": "Bread",
	})
	if status != http.StatusForbidden {
		t.Errorf("Expected 403 for removed member, got %d", status)
	}
}

// TestCollabExistenceNotLeaked: list terlarang dan list tidak ada menghasilkan
// error yang sama persis
func TestCollabExistenceNotLeaked(t *testing.T) {
	app := CreateTestApp()
	tokenA := registerAndLogin(t, app, uniqueName("leaka"))
	tokenB := registerAndLogin(t, app, uniqueName("leakb"))

	realID := createList(t, tokenA, "Secret list")
	fakeID := realID + 100000

	for _, listID := range []int{realID, fakeID} {
		status, result := doJSON(t, app, "GET", fmt.Sprintf("/api/v1/collab/lists/%d/tasks", listID), tokenB, nil)
		if status != http.StatusForbidden {
			t.Errorf("Expected 403 for list %d, got %d", listID, status)
		}
		if result["message"] != "Not allowed" {
			t.Errorf("Expected identical error message for list %d, got %v", listID, result["message"])
		}
	}
}

// TestCollabOwnerOnlyOperations: member biasa tidak boleh rename/delete/kelola member
func TestCollabOwnerOnlyOperations(t *testing.T) {
	app := CreateTestApp()
	userB := uniqueName("memberb")
	userC := uniqueName("memberc")
	tokenA := registerAndLogin(t, app, uniqueName("ownera"))
	tokenB := registerAndLogin(t, app, userB)
	registerAndLogin(t, app, userC)

	listID := createList(t, tokenA, "Shared")
	doJSON(t, app, "POST", fmt.Sprintf("/api/v1/collab/lists/%d/members", listID), tokenA, map[string]string{"username": userB})

	// member boleh membaca list member
	status, result := doJSON(t, app, "GET", fmt.Sprintf("/api/v1/collab/lists/%d/members", listID), tokenB, nil)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 for member reading members, got %d", status)
	}
	data := result["data"].(map[string]interface{})
	if data["is_owner"] != false {
		t.Errorf("Expected is_owner=false for member")
	}
	members := data["members"].([]interface{})
	if len(members) != 1 || members[0] != userB {
		t.Errorf("Expected members [%s], got %v (owner must not have a member row)", userB, members)
	}

	// tapi semua operasi tier owner ditolak
	status, _ = doJSON(t, app, "PUT", fmt.Sprintf("/api/v1/collab/lists/%d", listID), tokenB, map[string]string{"name": "Stolen"})
	if status != http.StatusForbidden {
		t.Errorf("Expected 403 for member rename, got %d", status)
	}
	status, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/v1/collab/lists/%d", listID), tokenB, nil)
	if status != http.StatusForbidden {
		t.Errorf("Expected 403 for member delete, got %d", status)
	}
	status, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/collab/lists/%d/members", listID), tokenB, map[string]string{"username": userC})
	if status != http.StatusForbidden {
		t.Errorf("Expected 403 for member adding member, got %d", status)
	}
	status, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/v1/collab/lists/%d/members/%s", listID, userB), tokenB, nil)
	if status != http.StatusForbidden {
		t.Errorf("Expected 403 for member removing member, got %d", status)
	}
}

// TestCollabMembershipErrors: duplikat member dan pencabutan non-member
func TestCollabMembershipErrors(t *testing.T) {
	app := CreateTestApp()
	userB := uniqueName("dupb")
	tokenA := registerAndLogin(t, app, uniqueName("dupa"))
	registerAndLogin(t, app, userB)

	listID := createList(t, tokenA, "Dup list")

	status, _ := doJSON(t, app, "POST", fmt.Sprintf("/api/v1/collab/lists/%d/members", listID), tokenA, map[string]string{"username": userB})
	if status != http.StatusOK {
		t.Fatalf("Expected 200 for first add, got %d", status)
	}

	// menambah member yang sudah ada adalah error, bukan no-op
	status, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/collab/lists/%d/members", listID), tokenA, map[string]string{"username": userB})
	if status != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate member, got %d", status)
	}

	// user tidak dikenal
	status, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/collab/lists/%d/members", listID), tokenA, map[string]string{"username": uniqueName("nobody")})
	if status != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown user, got %d", status)
	}

	// mencabut user yang bukan member
	userC := uniqueName("dupc")
	registerAndLogin(t, app, userC)
	status, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/v1/collab/lists/%d/members/%s", listID, userC), tokenA, nil)
	if status != http.StatusNotFound {
		t.Errorf("Expected 404 removing non-member, got %d", status)
	}
}

// TestCollabListsForUser: list milik sendiri dulu, lalu list sebagai member
func TestCollabListsForUser(t *testing.T) {
	app := CreateTestApp()
	userA := uniqueName("lista")
	userB := uniqueName("listb")
	tokenA := registerAndLogin(t, app, userA)
	tokenB := registerAndLogin(t, app, userB)

	ownedID := createList(t, tokenB, "Owned by B")
	memberID := createList(t, tokenA, "Owned by A")
	doJSON(t, app, "POST", fmt.Sprintf("/api/v1/collab/lists/%d/members", memberID), tokenA, map[string]string{"username": userB})

	status, result := doJSON(t, app, "GET", "/api/v1/collab/lists", tokenB, nil)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 for lists, got %d", status)
	}
	lists := result["data"].(map[string]interface{})["lists"].([]interface{})
	if len(lists) != 2 {
		t.Fatalf("Expected 2 lists for B, got %d", len(lists))
	}
	first := lists[0].(map[string]interface{})
	second := lists[1].(map[string]interface{})
	if int(first["id"].(float64)) != ownedID || first["owner_username"] != userB {
		t.Errorf("Expected owned list first, got %v", first)
	}
	if int(second["id"].(float64)) != memberID || second["owner_username"] != userA {
		t.Errorf("Expected member list second with owner username, got %v", second)
	}
}

// TestCollabListValidation: nama kosong ditolak
func TestCollabListValidation(t *testing.T) {
	app := CreateTestApp()
	token := registerAndLogin(t, app, uniqueName("emptyname"))

	status, _ := doJSON(t, app, "POST", "/api/v1/collab/lists", token, map[string]string{"name": "  "})
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty list name, got %d", status)
	}

	listID := createList(t, token, "Named")
	status, _ = doJSON(t, app, "PUT", fmt.Sprintf("/api/v1/collab/lists/%d", listID), token, map[string]string{"name": ""})
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty rename, got %d", status)
	}
}

// TestDeleteCollabListCascades: menghapus list ikut menghapus task dan membership
func TestDeleteCollabListCascades(t *testing.T) {
	app := CreateTestApp()
	userB := uniqueName("cascb")
	tokenA := registerAndLogin(t, app, uniqueName("casca"))
	tokenB := registerAndLogin(t, app, userB)

	listID := createList(t, tokenA, "Doomed")
	doJSON(t, app, "POST", fmt.Sprintf("/api/v1/collab/lists/%d/members", listID), tokenA, map[string]string{"username": userB})
	doJSON(t, app, "POST", fmt.Sprintf("/api/v1/collab/lists/%d/tasks", listID), tokenB, map[string]string{"title": "Doomed task"})

	status, _ := doJSON(t, app, "DELETE", fmt.Sprintf("/api/v1/collab/lists/%d", listID), tokenA, nil)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 for delete list, got %d", status)
	}

	// semua akses ke list yang sudah tidak ada diperlakukan sama
	status, _ = doJSON(t, app, "GET", fmt.Sprintf("/api/v1/collab/lists/%d/tasks", listID), tokenB, nil)
	if status != http.StatusForbidden {
		t.Errorf("Expected 403 after list delete, got %d", status)
	}

	// list hilang dari daftar B
	_, result := doJSON(t, app, "GET", "/api/v1/collab/lists", tokenB, nil)
	lists := result["data"].(map[string]interface{})["lists"].([]interface{})
	if len(lists) != 0 {
		t.Errorf("Expected no lists for B after cascade, got %d", len(lists))
	}
}

// TestUpdateCollabTaskByMember: member boleh mengubah task, termasuk due combine
func TestUpdateCollabTaskByMember(t *testing.T) {
	app := CreateTestApp()
	userB := uniqueName("updb")
	tokenA := registerAndLogin(t, app, uniqueName("upda"))
	tokenB := registerAndLogin(t, app, userB)

	listID := createList(t, tokenA, "Editable")
	doJSON(t, app, "POST", fmt.Sprintf("/api/v1/collab/lists/%d/members", listID), tokenA, map[string]string{"username": userB})

	status, result := doJSON(t, app, "POST", fmt.Sprintf("/api/v1/collab/lists/%d/tasks", listID), tokenA, map[string]string{
		"title": "Shared task",
	})
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", status)
	}
	taskID := int(result["id"].(float64))

	status, _ = doJSON(t, app, "PUT", fmt.Sprintf("/api/v1/collab/tasks/%d", taskID), tokenB, map[string]interface{}{
		"title":    "Edited by member",
		"due_date": "2025-07-01",
		"due_time": "12:00",
		"done":     true,
	})
	if status != http.StatusOK {
		t.Fatalf("Expected 200 for member update, got %d", status)
	}

	_, result = doJSON(t, app, "GET", fmt.Sprintf("/api/v1/collab/lists/%d/tasks", listID), tokenA, nil)
	task := result["data"].([]interface{})[0].(map[string]interface{})
	if task["title"] != "Edited by member" || task["done"] != true ||
		task["due_date"] != "2025-07-01" || task["due_time"] != "12:00" {
		t.Errorf("Member update not applied: %v", task)
	}

	// update task yang tidak ada
	status, _ = doJSON(t, app, "PUT", fmt.Sprintf("/api/v1/collab/tasks/%d", taskID+100000), tokenB, map[string]interface{}{
		"title": "Ghost",
	})
	if status != http.StatusNotFound {
		t.Errorf("Expected 404 for missing collab task, got %d", status)
	}
}

// TestUpdateCollabTaskInvalidFieldAtomic: update bersama juga all-or-nothing
func TestUpdateCollabTaskInvalidFieldAtomic(t *testing.T) {
	app := CreateTestApp()
	token := registerAndLogin(t, app, uniqueName("catomic"))

	listID := createList(t, token, "Atomic list")
	status, result := doJSON(t, app, "POST", fmt.Sprintf("/api/v1/collab/lists/%d/tasks", listID), token, map[string]string{
		"title":    "Stable",
		"priority": "Low",
	})
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", status)
	}
	taskID := int(result["id"].(float64))

	status, _ = doJSON(t, app, "PUT", fmt.Sprintf("/api/v1/collab/tasks/%d", taskID), token, map[string]interface{}{
		"title":    "Half applied",
		"priority": "Urgent",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("Expected 400 for invalid priority, got %d", status)
	}

	_, result = doJSON(t, app, "GET", fmt.Sprintf("/api/v1/collab/lists/%d/tasks", listID), token, nil)
	task := result["data"].([]interface{})[0].(map[string]interface{})
	if task["title"] != "Stable" || task["priority"] != "Low" {
		t.Errorf("Rejected update left partial changes: %v", task)
	}
}

// TestDeleteCollabTask: list-filtered, lalu 404 untuk task yang sudah hilang
func TestDeleteCollabTask(t *testing.T) {
	app := CreateTestApp()
	token := registerAndLogin(t, app, uniqueName("cdel"))

	listID := createList(t, token, "Trash")
	status, result := doJSON(t, app, "POST", fmt.Sprintf("/api/v1/collab/lists/%d/tasks", listID), token, map[string]string{
		"title": "Ephemeral",
	})
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", status)
	}
	taskID := int(result["id"].(float64))

	status, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/v1/collab/lists/%d/tasks/%d", listID, taskID), token, nil)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 for delete, got %d", status)
	}
	status, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/v1/collab/lists/%d/tasks/%d", listID, taskID), token, nil)
	if status != http.StatusNotFound {
		t.Errorf("Expected 404 for already deleted collab task, got %d", status)
	}
}

// TestCollabTaskPrioritySort: sort priority identik dengan task pribadi
func TestCollabTaskPrioritySort(t *testing.T) {
	app := CreateTestApp()
	token := registerAndLogin(t, app, uniqueName("csort"))

	listID := createList(t, token, "Sorted")
	for _, p := range [][2]string{{"low-c", "Low"}, {"high-c", "High"}, {"mid-c", "Mid"}} {
		status, _ := doJSON(t, app, "POST", fmt.Sprintf("/api/v1/collab/lists/%d/tasks", listID), token, map[string]string{
			"title":    p[0],
			"priority": p[1],
		})
		if status != http.StatusCreated {
			t.Fatalf("Expected 201 creating %s, got %d", p[0], status)
		}
	}

	status, result := doJSON(t, app, "GET", fmt.Sprintf("/api/v1/collab/lists/%d/tasks?sort=priority", listID), token, nil)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	tasks := result["data"].([]interface{})
	got := make([]string, len(tasks))
	for i, raw := range tasks {
		got[i] = raw.(map[string]interface{})["title"].(string)
	}
	want := []string{"high-c", "mid-c", "low-c"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Expected priority order %v, got %v", want, got)
	}
}
